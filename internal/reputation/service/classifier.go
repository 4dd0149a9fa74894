package service

import "safeline/internal/reputation/models"

// Classification thresholds. Two agreeing reports of one type decide the
// category; three reports of any mix are enough to flag a number.
const (
	typeThreshold  = 2
	totalThreshold = 3
)

// Classify derives a category from per-type ledger counts, in priority
// order. It is pure; the sticky Safe rule is enforced by callers (the
// service skips classification for Safe records, and the store-level
// guard keeps a concurrent manual Safe authoritative).
func Classify(counts map[models.ReportType]int) models.Category {
	switch {
	case counts[models.ReportTypeScam] >= typeThreshold:
		return models.CategoryScam
	case counts[models.ReportTypeBetting] >= typeThreshold:
		return models.CategoryBetting
	case counts[models.ReportTypeSuspicious] >= typeThreshold:
		return models.CategorySuspicious
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total >= totalThreshold {
		return models.CategorySuspicious
	}
	return models.CategoryUnknown
}
