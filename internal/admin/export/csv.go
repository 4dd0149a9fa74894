// Package export renders admin query results as CSV downloads.
package export

import (
	"strconv"
	"strings"
	"time"

	"safeline/internal/reputation/models"
	"safeline/internal/reputation/store"
)

const header = "id,phone_number,category,last_reported_at,reports_count,score,risk_label"

// CSV renders rows with a fixed column order. Field values are
// sanitized so a row always has exactly seven columns.
func CSV(rows []*store.RecordWithCount) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')

	for _, row := range rows {
		score := models.Score(row.ReportCount)
		fields := []string{
			row.Record.ID.String(),
			string(row.Record.CanonicalNumber),
			string(row.Record.Category),
			formatTime(row.Record.LastReportedAt),
			strconv.Itoa(row.ReportCount),
			strconv.Itoa(score),
			string(models.LabelForScore(score)),
		}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(sanitize(f))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// sanitize keeps the format quote-free: separators and line breaks in
// a value become spaces.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '\n', '\r':
			return ' '
		}
		return r
	}, s)
}
