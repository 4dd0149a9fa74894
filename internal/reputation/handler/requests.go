package handler

import "strconv"

type lookupRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type submitReportRequest struct {
	ReportType     string `json:"report_type"`
	Channel        string `json:"channel"`
	MessageExcerpt string `json:"message_excerpt,omitempty"`
}

// parseLimit returns 0 for absent or malformed limits so the service
// applies its default.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
