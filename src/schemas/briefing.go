package schemas

import "github.com/xerikson-cyber/Sirij-BOT/src/models"

// BriefingListResponse represents a page of briefings for one user.
type BriefingListResponse struct {
	Briefings []*models.Briefing `json:"briefings"`
	Count     int                `json:"count"`
}

// StatsGroup is one bucket of an aggregate count.
type StatsGroup struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// BriefingStatsResponse represents aggregate briefing counts.
type BriefingStatsResponse struct {
	Total        int          `json:"total"`
	ByDepartment []StatsGroup `json:"by_department"`
	ByDate       []StatsGroup `json:"by_date"`
}

// TextReportResponse wraps the plain-text minute of one briefing.
type TextReportResponse struct {
	ID     int64  `json:"id"`
	Report string `json:"report"`
}
