package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Timestamps in persisted documents come from several writers: RFC 3339
// instants, bare dates from date inputs, datetime-local values, epoch
// milliseconds, and empty strings from cleared form fields. Values without a
// zone are read as UTC, matching how browsers parse bare dates.
var looseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseLooseTime parses s with the layouts accepted in persisted documents.
// Empty or unrecognised input reports false.
func ParseLooseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range looseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// looseTime decodes a single timestamp field. Unparseable values decode as
// unset so one bad field never discards the surrounding document.
type looseTime struct {
	t *time.Time
}

func (l *looseTime) UnmarshalJSON(b []byte) error {
	l.t = nil
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		return nil
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		t := time.UnixMilli(int64(ms)).UTC()
		l.t = &t
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, ok := ParseLooseTime(s); ok {
		l.t = &t
	}
	return nil
}

func (l looseTime) value() time.Time {
	if l.t == nil {
		return time.Time{}
	}
	return *l.t
}

// UnmarshalJSON accepts the date formats described on ParseLooseTime.
func (o *Organization) UnmarshalJSON(b []byte) error {
	type plain Organization
	aux := struct {
		*plain
		SubscriptionEndDate looseTime `json:"subscriptionEndDate"`
		CreatedAt           looseTime `json:"createdAt"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	o.SubscriptionEndDate = aux.SubscriptionEndDate.t
	o.CreatedAt = aux.CreatedAt.value()
	return nil
}

// UnmarshalJSON accepts the date formats described on ParseLooseTime.
func (s *Sale) UnmarshalJSON(b []byte) error {
	type plain Sale
	aux := struct {
		*plain
		PromisedPaymentDate looseTime `json:"promisedPaymentDate"`
		EntryTime           looseTime `json:"entryTime"`
		CreatedAt           looseTime `json:"createdAt"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.PromisedPaymentDate = aux.PromisedPaymentDate.t
	s.EntryTime = aux.EntryTime.t
	s.CreatedAt = aux.CreatedAt.value()
	return nil
}

// UnmarshalJSON accepts the date formats described on ParseLooseTime.
func (t *SaaSTransaction) UnmarshalJSON(b []byte) error {
	type plain SaaSTransaction
	aux := struct {
		*plain
		Date looseTime `json:"date"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.Date = aux.Date.value()
	return nil
}

// UnmarshalJSON accepts the date formats described on ParseLooseTime.
func (e *SaaSExpense) UnmarshalJSON(b []byte) error {
	type plain SaaSExpense
	aux := struct {
		*plain
		Date looseTime `json:"date"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Date = aux.Date.value()
	return nil
}

// UnmarshalJSON accepts the date formats described on ParseLooseTime.
func (a *Announcement) UnmarshalJSON(b []byte) error {
	type plain Announcement
	aux := struct {
		*plain
		StartDate looseTime `json:"startDate"`
		EndDate   looseTime `json:"endDate"`
		CreatedAt looseTime `json:"createdAt"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.StartDate = aux.StartDate.value()
	a.EndDate = aux.EndDate.value()
	a.CreatedAt = aux.CreatedAt.value()
	return nil
}
