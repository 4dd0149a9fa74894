package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NumberID identifies a phone record. It is assigned once at creation and
// never reused, even if the canonical number is later re-categorized.
type NumberID uuid.UUID

// ReportID identifies a single report ledger entry.
type ReportID uuid.UUID

// NewNumberID returns a fresh random NumberID.
func NewNumberID() NumberID {
	return NumberID(uuid.New())
}

// NewReportID returns a fresh random ReportID.
func NewReportID() ReportID {
	return ReportID(uuid.New())
}

// ParseNumberID validates and returns a NumberID from its string form.
func ParseNumberID(s string) (NumberID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NumberID{}, fmt.Errorf("invalid number id %q: %w", s, err)
	}
	return NumberID(u), nil
}

// ParseReportID validates and returns a ReportID from its string form.
func ParseReportID(s string) (ReportID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ReportID{}, fmt.Errorf("invalid report id %q: %w", s, err)
	}
	return ReportID(u), nil
}

func (id NumberID) String() string { return uuid.UUID(id).String() }

func (id NumberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ReportID) String() string { return uuid.UUID(id).String() }

func (id ReportID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
