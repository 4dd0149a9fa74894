// Package models defines the phone reputation entities and their closed
// enumerations. Enum values are validated at parse time so an unknown
// category or channel never reaches a store.
package models

import (
	"fmt"
	"time"

	"safeline/pkg/domain"
	"safeline/pkg/phone"
)

// Category is the derived or manually assigned classification of a number.
type Category string

const (
	CategoryScam       Category = "Scam"
	CategoryBetting    Category = "Betting"
	CategorySuspicious Category = "Suspicious"
	CategorySafe       Category = "Safe"
	CategoryUnknown    Category = "Unknown"
)

// Categories lists every valid category, in classifier priority order.
func Categories() []Category {
	return []Category{CategoryScam, CategoryBetting, CategorySuspicious, CategorySafe, CategoryUnknown}
}

// ParseCategory validates and returns a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryScam, CategoryBetting, CategorySuspicious, CategorySafe, CategoryUnknown:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// ReportType is the complaint type a reporter selects. Unlike Category it
// has no Unknown member: every report states what it claims.
type ReportType string

const (
	ReportTypeScam       ReportType = "Scam"
	ReportTypeBetting    ReportType = "Betting"
	ReportTypeSuspicious ReportType = "Suspicious"
	ReportTypeSafe       ReportType = "Safe"
)

// ParseReportType validates and returns a ReportType.
func ParseReportType(s string) (ReportType, error) {
	rt := ReportType(s)
	if !rt.IsValid() {
		return "", fmt.Errorf("unknown report type: %q", s)
	}
	return rt, nil
}

func (rt ReportType) IsValid() bool {
	switch rt {
	case ReportTypeScam, ReportTypeBetting, ReportTypeSuspicious, ReportTypeSafe:
		return true
	}
	return false
}

func (rt ReportType) String() string { return string(rt) }

// Channel is how the reported contact happened.
type Channel string

const (
	ChannelCall     Channel = "Call"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WhatsApp"
	ChannelOther    Channel = "Other"
)

// ParseChannel validates and returns a Channel.
func ParseChannel(s string) (Channel, error) {
	ch := Channel(s)
	if !ch.IsValid() {
		return "", fmt.Errorf("unknown channel: %q", s)
	}
	return ch, nil
}

func (ch Channel) IsValid() bool {
	switch ch {
	case ChannelCall, ChannelSMS, ChannelWhatsApp, ChannelOther:
		return true
	}
	return false
}

func (ch Channel) String() string { return string(ch) }

// PhoneRecord is one canonical phone identity and its current state.
// Exactly one record exists per canonical number.
type PhoneRecord struct {
	ID              domain.NumberID
	CanonicalNumber phone.Canonical
	Category        Category
	// LastReportedAt mirrors max(created_at) over the record's reports.
	// nil until the first report is accepted.
	LastReportedAt *time.Time
}

// Clone returns a deep copy so callers can't mutate store-held state.
func (r *PhoneRecord) Clone() *PhoneRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.LastReportedAt != nil {
		t := *r.LastReportedAt
		cp.LastReportedAt = &t
	}
	return &cp
}

// Report is an immutable ledger entry for one accepted complaint.
type Report struct {
	ID        domain.ReportID
	NumberID  domain.NumberID
	Type      ReportType
	Channel   Channel
	Excerpt   string
	CreatedAt time.Time
}

// Clone returns a copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
