package domain

import "time"

// AuditEntry is an immutable record of one access decision. Callers
// build it via NewAuditEntry and never mutate it afterward -- the
// ledger and columnar store both depend on that immutability.
type AuditEntry struct {
	EntryID           EntryId
	AgentID           AgentId
	Domain            DomainName
	Decision          AccessDecision
	Timestamp         Timestamp // seconds since epoch, double precision
	Reason            string
	PolicyID          *PolicyId
	RuleID            *RuleId
	RequestMethod     string
	RequestPath       string
	SourceIP          string
	ProcessingTimeMs  float64
}

// NewAuditEntry constructs an entry with a fresh id. Unset fields take
// the same defaults as the original implementation: method "GET",
// path "/", source_ip "0.0.0.0".
func NewAuditEntry(agentID AgentId, domain string, decision AccessDecision, timestamp Timestamp, reason string) AuditEntry {
	return AuditEntry{
		EntryID:          NewID(),
		AgentID:          agentID,
		Domain:           domain,
		Decision:         decision,
		Timestamp:        timestamp,
		Reason:           reason,
		RequestMethod:    "GET",
		RequestPath:      "/",
		SourceIP:         "0.0.0.0",
		ProcessingTimeMs: 0,
	}
}

// IsPermitted reports whether this entry represents a granted request.
func (e AuditEntry) IsPermitted() bool {
	return e.Decision.IsPermitted()
}

// DatetimeUTC converts the stored timestamp to a time.Time in UTC.
func (e AuditEntry) DatetimeUTC() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// HourOfDay returns the UTC hour (0-23) of the entry's timestamp.
func (e AuditEntry) HourOfDay() int {
	return e.DatetimeUTC().Hour()
}

// DayOfWeek returns the UTC weekday of the entry's timestamp.
func (e AuditEntry) DayOfWeek() time.Weekday {
	return e.DatetimeUTC().Weekday()
}

// IsBusinessHours reports whether the entry falls within 9:00-17:00 UTC.
func (e AuditEntry) IsBusinessHours() bool {
	h := e.HourOfDay()
	return h >= 9 && h < 17
}
