package cache

import "time"

// Entry is one cached external-lookup result. One entry exists per
// normalized query; hits bump HitCount without touching ExpiresAt.
type Entry struct {
	QueryHash string    `json:"query_hash"`
	RawQuery  string    `json:"raw_query"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	HitCount  int64     `json:"hit_count"`
}

// Priority of a lookup admission request. Higher priorities may consume the
// reserved tail of the daily budget that lower ones are denied.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Deny reasons returned by TryAdmit. A reserve-tail denial reports
// DenyDailyLimit: for the denied priority the daily budget is exhausted.
const (
	DenyDailyLimit   = "daily_limit"
	DenyMonthlyLimit = "monthly_limit"
)
