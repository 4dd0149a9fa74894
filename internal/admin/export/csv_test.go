package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeline/internal/reputation/models"
	"safeline/internal/reputation/store"
	"safeline/pkg/domain"
)

func Test_CSV(t *testing.T) {
	reported := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []*store.RecordWithCount{
		{
			Record: &models.PhoneRecord{
				ID:              domain.NewNumberID(),
				CanonicalNumber: "+905321112233",
				Category:        models.CategoryScam,
				LastReportedAt:  &reported,
			},
			ReportCount: 7,
		},
		{
			Record: &models.PhoneRecord{
				ID:              domain.NewNumberID(),
				CanonicalNumber: "+905322220002",
				Category:        models.CategoryUnknown,
			},
			ReportCount: 0,
		},
	}

	out := CSV(rows)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "id,phone_number,category,last_reported_at,reports_count,score,risk_label", lines[0])

	first := strings.Split(lines[1], ",")
	require.Len(t, first, 7)
	assert.Equal(t, rows[0].Record.ID.String(), first[0])
	assert.Equal(t, "+905321112233", first[1])
	assert.Equal(t, "Scam", first[2])
	assert.Equal(t, "2025-06-01T12:00:00Z", first[3])
	assert.Equal(t, "7", first[4])
	assert.Equal(t, "100", first[5])
	assert.Equal(t, "High Risk", first[6])

	second := strings.Split(lines[2], ",")
	require.Len(t, second, 7)
	assert.Empty(t, second[3], "never-reported numbers export an empty timestamp")
	assert.Equal(t, "0", second[4])
	assert.Equal(t, "Low Risk", second[6])
}

func Test_CSV_SanitizesSeparators(t *testing.T) {
	rows := []*store.RecordWithCount{
		{
			Record: &models.PhoneRecord{
				ID:              domain.NewNumberID(),
				CanonicalNumber: "+90532,111\n2233",
				Category:        models.CategoryUnknown,
			},
		},
	}

	out := CSV(rows)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Len(t, strings.Split(lines[1], ","), 7)
}

func Test_CSV_Empty(t *testing.T) {
	out := CSV(nil)
	assert.Equal(t, "id,phone_number,category,last_reported_at,reports_count,score,risk_label\n", out)
}
