package handler

import (
	"time"

	"safeline/internal/reputation/models"
)

type recordResponse struct {
	ID             string `json:"id"`
	PhoneNumber    string `json:"phone_number"`
	Category       string `json:"category"`
	LastReportedAt string `json:"last_reported_at,omitempty"`
}

func toRecordResponse(rec *models.PhoneRecord) recordResponse {
	resp := recordResponse{
		ID:          rec.ID.String(),
		PhoneNumber: string(rec.CanonicalNumber),
		Category:    rec.Category.String(),
	}
	if rec.LastReportedAt != nil {
		resp.LastReportedAt = rec.LastReportedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

type submitReportResponse struct {
	Accepted    bool   `json:"accepted"`
	ReportID    string `json:"report_id,omitempty"`
	NewCategory string `json:"new_category,omitempty"`
	Message     string `json:"message,omitempty"`
}

type statsResponse struct {
	ReportCount int    `json:"report_count"`
	Score       int    `json:"score"`
	RiskLabel   string `json:"risk_label"`
}

type reportResponse struct {
	ID             string `json:"id"`
	ReportType     string `json:"report_type"`
	Channel        string `json:"channel"`
	MessageExcerpt string `json:"message_excerpt,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toReportsResponse(reports []*models.Report) []reportResponse {
	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, reportResponse{
			ID:             rep.ID.String(),
			ReportType:     rep.Type.String(),
			Channel:        rep.Channel.String(),
			MessageExcerpt: rep.Excerpt,
			CreatedAt:      rep.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
