package handler

import (
	"time"

	"safeline/internal/reputation/models"
	"safeline/internal/reputation/store"
)

type loginResponse struct {
	Token string `json:"token"`
}

type numberRow struct {
	ID             string `json:"id"`
	PhoneNumber    string `json:"phone_number"`
	Category       string `json:"category"`
	LastReportedAt string `json:"last_reported_at,omitempty"`
	ReportCount    int    `json:"report_count"`
	Score          int    `json:"score"`
	RiskLabel      string `json:"risk_label"`
}

func toNumbersResponse(rows []*store.RecordWithCount) []numberRow {
	out := make([]numberRow, 0, len(rows))
	for _, row := range rows {
		score := models.Score(row.ReportCount)
		item := numberRow{
			ID:          row.Record.ID.String(),
			PhoneNumber: string(row.Record.CanonicalNumber),
			Category:    row.Record.Category.String(),
			ReportCount: row.ReportCount,
			Score:       score,
			RiskLabel:   string(models.LabelForScore(score)),
		}
		if row.Record.LastReportedAt != nil {
			item.LastReportedAt = row.Record.LastReportedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, item)
	}
	return out
}

type totalsResponse struct {
	Numbers       int `json:"numbers"`
	Reports       int `json:"reports"`
	RecentReports int `json:"recent_reports"`
}
