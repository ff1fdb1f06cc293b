package models

import "time"

// Briefing is the durable record produced from one finalized session.
// Created exactly once per finalized session; immutable thereafter.
type Briefing struct {
	ID int64 `json:"id"`

	// General data
	Department     string   `json:"department"`
	MeetingDate    string   `json:"meeting_date"` // YYYY-MM-DD
	MaxCategory    string   `json:"max_category"`
	SupervisorName string   `json:"supervisor_name"`
	PersonnelNames []string `json:"personnel_names"`
	StartTime      string   `json:"start_time"` // HH:MM
	EndTime        string   `json:"end_time"`   // HH:MM

	// Opening section
	OpeningGreeting   bool `json:"opening_greeting"`
	HeadcountCheck    bool `json:"headcount_check"`
	HealthStatusCheck bool `json:"health_status_check"`
	WarmupExercises   bool `json:"warmup_exercises"`
	HealthAnomalies   bool `json:"health_anomalies"`
	AttendanceList    bool `json:"attendance_list"`

	// Information section
	MaintenanceWorkDiscussed bool   `json:"maintenance_work_discussed"`
	OperationWorkDiscussed   bool   `json:"operation_work_discussed"`
	HighRiskWorkDiscussed    bool   `json:"high_risk_work_discussed"`
	IncidentsDiscussed       bool   `json:"incidents_discussed"`
	OtherInformation         string `json:"other_information"`

	// Safety activities section
	MirrorCheck            bool   `json:"mirror_check"`
	HazardPrediction       bool   `json:"hazard_prediction"`
	RegulationReading      bool   `json:"regulation_reading"`
	HazardExposition       bool   `json:"hazard_exposition"`
	FollowupActivities     bool   `json:"followup_activities"`
	SafetyActivitiesDetail string `json:"safety_activities_detail"`

	// Goal and observations
	DayGoal      string `json:"day_goal"`
	Observations string `json:"observations"`

	// Evidence and metadata
	PhotoRefs      []string  `json:"photo_refs"`
	RegisteredAt   time.Time `json:"registered_at"`
	TelegramUserID int64     `json:"telegram_user_id"`
}

// RequiredFieldsMissing lists the mandatory fields that are empty.
// A briefing with any of these missing must not be persisted.
func (b *Briefing) RequiredFieldsMissing() []string {
	var missing []string
	if b.Department == "" {
		missing = append(missing, "department")
	}
	if b.MeetingDate == "" {
		missing = append(missing, "meeting_date")
	}
	if b.SupervisorName == "" {
		missing = append(missing, "supervisor_name")
	}
	if b.StartTime == "" {
		missing = append(missing, "start_time")
	}
	if b.EndTime == "" {
		missing = append(missing, "end_time")
	}
	return missing
}
