package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
	"github.com/xerikson-cyber/Sirij-BOT/src/validation"
)

// BriefingRegisteredEvent is the payload published when a briefing is
// committed. Consumers key on the record id.
type BriefingRegisteredEvent struct {
	Event          string `json:"event"`
	BriefingID     int64  `json:"briefing_id"`
	Department     string `json:"department"`
	MeetingDate    string `json:"meeting_date"`
	SupervisorName string `json:"supervisor_name"`
	TelegramUserID int64  `json:"telegram_user_id"`
	RegisteredAt   string `json:"registered_at"`
}

// Finalizer turns a confirmed session into a durable briefing record.
// Insert and publish are not one transaction: the insert commits first
// and the event is best effort.
type Finalizer struct {
	briefings BriefingStore
	publisher EventPublisher
	validator *validation.Validator
	exchange  string
	log       *logrus.Logger
}

// NewFinalizer builds a Finalizer. publisher may be nil, which
// disables eventing.
func NewFinalizer(briefings BriefingStore, publisher EventPublisher, exchange string, log *logrus.Logger) *Finalizer {
	return &Finalizer{
		briefings: briefings,
		publisher: publisher,
		validator: validation.New(),
		exchange:  exchange,
		log:       log,
	}
}

// Finalize flattens the session's answers into a briefing, runs the
// cross-field checks and persists it. On any error the session is left
// untouched by the caller so the user can retry.
func (f *Finalizer) Finalize(ctx context.Context, session *models.Session) (*models.Briefing, error) {
	briefing, err := f.assemble(session)
	if err != nil {
		return nil, err
	}

	if _, err := f.briefings.Insert(ctx, briefing); err != nil {
		return nil, err
	}

	f.publishRegistered(briefing)
	return briefing, nil
}

func (f *Finalizer) assemble(session *models.Session) (*models.Briefing, error) {
	text := func(key string) string {
		if v, ok := session.Answer(key); ok {
			return v.Text
		}
		return ""
	}
	boolean := func(key string) bool {
		v, ok := session.Answer(key)
		return ok && v.Bool
	}
	clock := func(key string) string {
		if v, ok := session.Answer(key); ok {
			return v.Time
		}
		return ""
	}

	briefing := &models.Briefing{
		Department:     text(models.QDepartment),
		MaxCategory:    text(models.QMaxCategory),
		SupervisorName: text(models.QSupervisorName),
		StartTime:      clock(models.QStartTime),
		EndTime:        clock(models.QEndTime),

		OpeningGreeting:   boolean(models.QOpeningGreeting),
		HeadcountCheck:    boolean(models.QHeadcountCheck),
		HealthStatusCheck: boolean(models.QHealthCheck),
		WarmupExercises:   boolean(models.QWarmupExercises),
		HealthAnomalies:   boolean(models.QHealthAnomalies),
		AttendanceList:    boolean(models.QAttendanceList),

		MaintenanceWorkDiscussed: boolean(models.QMaintenanceWork),
		OperationWorkDiscussed:   boolean(models.QOperationWork),
		HighRiskWorkDiscussed:    boolean(models.QHighRiskWork),
		IncidentsDiscussed:       boolean(models.QIncidents),
		OtherInformation:         text(models.QOtherInformation),

		MirrorCheck:            boolean(models.QMirrorCheck),
		HazardPrediction:       boolean(models.QHazardPrediction),
		RegulationReading:      boolean(models.QRegulationRead),
		HazardExposition:       boolean(models.QHazardExposition),
		FollowupActivities:     boolean(models.QFollowup),
		SafetyActivitiesDetail: text(models.QSafetyActivities),

		DayGoal:      text(models.QDayGoal),
		Observations: text(models.QObservations),

		PhotoRefs:      session.MediaRefs,
		TelegramUserID: session.UserID,
	}

	if v, ok := session.Answer(models.QMeetingDate); ok {
		briefing.MeetingDate = v.Date
	}
	if v, ok := session.Answer(models.QPersonnelNames); ok {
		briefing.PersonnelNames = v.Names
	}

	if missing := briefing.RequiredFieldsMissing(); len(missing) > 0 {
		return nil, fmt.Errorf("faltan campos obligatorios (%v): %w",
			missing, models.ErrMissingRequiredField)
	}

	sched := f.validator.ValidateScheduleConsistency(briefing.StartTime, briefing.EndTime)
	if !sched.OK {
		return nil, errors.New(sched.ErrMessage)
	}

	return briefing, nil
}

// publishRegistered emits the briefing.registered event. Failures are
// logged and swallowed; the record is already durable.
func (f *Finalizer) publishRegistered(briefing *models.Briefing) {
	if f.publisher == nil {
		return
	}

	body, err := json.Marshal(BriefingRegisteredEvent{
		Event:          "briefing.registered",
		BriefingID:     briefing.ID,
		Department:     briefing.Department,
		MeetingDate:    briefing.MeetingDate,
		SupervisorName: briefing.SupervisorName,
		TelegramUserID: briefing.TelegramUserID,
		RegisteredAt:   briefing.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		f.log.WithError(err).Error("failed to encode briefing event")
		return
	}

	if err := f.publisher.Publish(f.exchange, body); err != nil {
		f.log.WithError(err).WithField("briefing_id", briefing.ID).
			Warn("failed to publish briefing event")
	}
}
