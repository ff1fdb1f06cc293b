package repository

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xerikson-cyber/Sirij-BOT/src/db"
	"github.com/xerikson-cyber/Sirij-BOT/src/models"
)

// BriefingRepository handles all database operations for finalized
// briefing records.
type BriefingRepository struct {
	db *db.DB
}

// NewBriefingRepository creates a new briefing repository.
func NewBriefingRepository(database *db.DB) *BriefingRepository {
	return &BriefingRepository{
		db: database,
	}
}

// Insert persists a finalized briefing and returns its assigned
// identifier. Records missing a required field are rejected before the
// write is attempted.
func (r *BriefingRepository) Insert(ctx context.Context, b *models.Briefing) (int64, error) {
	if missing := b.RequiredFieldsMissing(); len(missing) > 0 {
		return 0, fmt.Errorf("%w: %v", models.ErrMissingRequiredField, missing)
	}

	personnel, err := json.Marshal(b.PersonnelNames)
	if err != nil {
		return 0, fmt.Errorf("failed to encode personnel names: %w", err)
	}
	photoRefs, err := json.Marshal(b.PhotoRefs)
	if err != nil {
		return 0, fmt.Errorf("failed to encode photo refs: %w", err)
	}

	query := `
		INSERT INTO briefings
		(department, meeting_date, max_category, supervisor_name, personnel_names,
		 start_time, end_time,
		 opening_greeting, headcount_check, health_status_check, warmup_exercises,
		 health_anomalies, attendance_list,
		 maintenance_work_discussed, operation_work_discussed, high_risk_work_discussed,
		 incidents_discussed, other_information,
		 mirror_check, hazard_prediction, regulation_reading, hazard_exposition,
		 followup_activities, safety_activities_detail,
		 day_goal, observations,
		 photo_refs, registered_at, telegram_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
		RETURNING id, registered_at
	`

	err = r.db.GetConnection().QueryRowContext(
		ctx,
		query,
		b.Department, b.MeetingDate, b.MaxCategory, b.SupervisorName, personnel,
		b.StartTime, b.EndTime,
		b.OpeningGreeting, b.HeadcountCheck, b.HealthStatusCheck, b.WarmupExercises,
		b.HealthAnomalies, b.AttendanceList,
		b.MaintenanceWorkDiscussed, b.OperationWorkDiscussed, b.HighRiskWorkDiscussed,
		b.IncidentsDiscussed, b.OtherInformation,
		b.MirrorCheck, b.HazardPrediction, b.RegulationReading, b.HazardExposition,
		b.FollowupActivities, b.SafetyActivitiesDetail,
		b.DayGoal, b.Observations,
		photoRefs, time.Now(), b.TelegramUserID,
	).Scan(&b.ID, &b.RegisteredAt)

	if err != nil {
		return 0, fmt.Errorf("failed to insert briefing: %w", err)
	}

	slog.Info("Briefing registered",
		"briefing_id", b.ID,
		"department", b.Department,
		"user_id", b.TelegramUserID)

	return b.ID, nil
}

const briefingColumns = `
	id, department, meeting_date, max_category, supervisor_name, personnel_names,
	start_time, end_time,
	opening_greeting, headcount_check, health_status_check, warmup_exercises,
	health_anomalies, attendance_list,
	maintenance_work_discussed, operation_work_discussed, high_risk_work_discussed,
	incidents_discussed, other_information,
	mirror_check, hazard_prediction, regulation_reading, hazard_exposition,
	followup_activities, safety_activities_detail,
	day_goal, observations,
	photo_refs, registered_at, telegram_user_id
`

func scanBriefing(row interface{ Scan(...any) error }) (*models.Briefing, error) {
	var (
		b           models.Briefing
		meetingDate time.Time
		personnel   []byte
		photoRefs   []byte
	)
	err := row.Scan(
		&b.ID, &b.Department, &meetingDate, &b.MaxCategory, &b.SupervisorName, &personnel,
		&b.StartTime, &b.EndTime,
		&b.OpeningGreeting, &b.HeadcountCheck, &b.HealthStatusCheck, &b.WarmupExercises,
		&b.HealthAnomalies, &b.AttendanceList,
		&b.MaintenanceWorkDiscussed, &b.OperationWorkDiscussed, &b.HighRiskWorkDiscussed,
		&b.IncidentsDiscussed, &b.OtherInformation,
		&b.MirrorCheck, &b.HazardPrediction, &b.RegulationReading, &b.HazardExposition,
		&b.FollowupActivities, &b.SafetyActivitiesDetail,
		&b.DayGoal, &b.Observations,
		&photoRefs, &b.RegisteredAt, &b.TelegramUserID,
	)
	if err != nil {
		return nil, err
	}

	b.MeetingDate = meetingDate.Format("2006-01-02")
	if len(personnel) > 0 {
		if err := json.Unmarshal(personnel, &b.PersonnelNames); err != nil {
			return nil, fmt.Errorf("failed to decode personnel names: %w", err)
		}
	}
	if len(photoRefs) > 0 {
		if err := json.Unmarshal(photoRefs, &b.PhotoRefs); err != nil {
			return nil, fmt.Errorf("failed to decode photo refs: %w", err)
		}
	}

	// TIME columns come back as full timestamps through lib/pq.
	b.StartTime = normalizeClock(b.StartTime)
	b.EndTime = normalizeClock(b.EndTime)

	return &b, nil
}

// normalizeClock trims TIME column values like "08:30:00" to "08:30".
func normalizeClock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

// GetByID retrieves a briefing by identifier.
func (r *BriefingRepository) GetByID(ctx context.Context, id int64) (*models.Briefing, error) {
	query := `SELECT ` + briefingColumns + ` FROM briefings WHERE id = $1`

	b, err := scanBriefing(r.db.GetConnection().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrBriefingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get briefing: %w", err)
	}
	return b, nil
}

// ListByUser returns the most recent briefings registered by a user.
func (r *BriefingRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Briefing, error) {
	query := `SELECT ` + briefingColumns + `
		FROM briefings
		WHERE telegram_user_id = $1
		ORDER BY registered_at DESC
		LIMIT $2`

	rows, err := r.db.GetConnection().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list briefings: %w", err)
	}
	defer rows.Close()

	var out []*models.Briefing
	for rows.Next() {
		b, err := scanBriefing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan briefing: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountByGroup is one row of a grouped statistics query.
type CountByGroup struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// Statistics aggregates briefing counts overall, by department and by
// meeting date. Empty from/to bounds are ignored.
func (r *BriefingRepository) Statistics(ctx context.Context, from, to string) (total int, byDepartment, byDate []CountByGroup, err error) {
	where, params := dateRangeFilter(from, to)
	conn := r.db.GetConnection()

	if err = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM briefings `+where, params...).Scan(&total); err != nil {
		return 0, nil, nil, fmt.Errorf("failed to count briefings: %w", err)
	}

	byDepartment, err = r.groupedCount(ctx,
		`SELECT department, COUNT(*) FROM briefings `+where+` GROUP BY department ORDER BY COUNT(*) DESC`, params)
	if err != nil {
		return 0, nil, nil, err
	}

	byDate, err = r.groupedCount(ctx,
		`SELECT meeting_date::text, COUNT(*) FROM briefings `+where+` GROUP BY meeting_date ORDER BY meeting_date DESC LIMIT 30`, params)
	if err != nil {
		return 0, nil, nil, err
	}

	return total, byDepartment, byDate, nil
}

func (r *BriefingRepository) groupedCount(ctx context.Context, query string, params []any) ([]CountByGroup, error) {
	rows, err := r.db.GetConnection().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	var out []CountByGroup
	for rows.Next() {
		var g CountByGroup
		if err := rows.Scan(&g.Group, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func dateRangeFilter(from, to string) (string, []any) {
	switch {
	case from != "" && to != "":
		return "WHERE meeting_date BETWEEN $1 AND $2", []any{from, to}
	case from != "":
		return "WHERE meeting_date >= $1", []any{from}
	case to != "":
		return "WHERE meeting_date <= $1", []any{to}
	default:
		return "", nil
	}
}

// ExportCSV streams every briefing in the date range to w as CSV and
// returns the number of exported rows.
func (r *BriefingRepository) ExportCSV(ctx context.Context, w io.Writer, from, to string) (int, error) {
	where, params := dateRangeFilter(from, to)
	query := `SELECT ` + briefingColumns + ` FROM briefings ` + where + ` ORDER BY registered_at`

	rows, err := r.db.GetConnection().QueryContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("failed to query briefings for export: %w", err)
	}
	defer rows.Close()

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader()); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	count := 0
	for rows.Next() {
		b, err := scanBriefing(rows)
		if err != nil {
			return count, fmt.Errorf("failed to scan briefing: %w", err)
		}
		if err := writer.Write(csvRow(b)); err != nil {
			return count, fmt.Errorf("failed to write CSV row: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}

	writer.Flush()
	return count, writer.Error()
}

func csvHeader() []string {
	return []string{
		"id", "department", "meeting_date", "max_category", "supervisor_name",
		"personnel_names", "start_time", "end_time",
		"opening_greeting", "headcount_check", "health_status_check",
		"warmup_exercises", "health_anomalies", "attendance_list",
		"maintenance_work_discussed", "operation_work_discussed",
		"high_risk_work_discussed", "incidents_discussed", "other_information",
		"mirror_check", "hazard_prediction", "regulation_reading",
		"hazard_exposition", "followup_activities", "safety_activities_detail",
		"day_goal", "observations", "photo_refs", "registered_at", "telegram_user_id",
	}
}

func csvRow(b *models.Briefing) []string {
	boolStr := func(v bool) string {
		if v {
			return "true"
		}
		return "false"
	}
	personnel, _ := json.Marshal(b.PersonnelNames)
	photoRefs, _ := json.Marshal(b.PhotoRefs)

	return []string{
		fmt.Sprintf("%d", b.ID), b.Department, b.MeetingDate, b.MaxCategory, b.SupervisorName,
		string(personnel), b.StartTime, b.EndTime,
		boolStr(b.OpeningGreeting), boolStr(b.HeadcountCheck), boolStr(b.HealthStatusCheck),
		boolStr(b.WarmupExercises), boolStr(b.HealthAnomalies), boolStr(b.AttendanceList),
		boolStr(b.MaintenanceWorkDiscussed), boolStr(b.OperationWorkDiscussed),
		boolStr(b.HighRiskWorkDiscussed), boolStr(b.IncidentsDiscussed), b.OtherInformation,
		boolStr(b.MirrorCheck), boolStr(b.HazardPrediction), boolStr(b.RegulationReading),
		boolStr(b.HazardExposition), boolStr(b.FollowupActivities), b.SafetyActivitiesDetail,
		b.DayGoal, b.Observations, string(photoRefs),
		b.RegisteredAt.Format(time.RFC3339), fmt.Sprintf("%d", b.TelegramUserID),
	}
}
