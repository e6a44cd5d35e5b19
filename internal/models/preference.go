package models

import "time"

// SentinelRank sorts reports without a manual rank after every ranked one,
// before the name tie-break. Larger than any rank a drag-reorder can assign.
const SentinelRank = 1 << 30

// ReportPreference is a per-user personalization row: pin flag plus manual
// display rank. It never affects authorization.
type ReportPreference struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ReportID  string    `db:"report_id" json:"report_id"`
	IsPinned  bool      `db:"is_pinned" json:"is_pinned"`
	SortRank  int       `db:"sort_rank" json:"sort_rank"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SortedReport is a report decorated with the caller's personalization for
// display ordering.
type SortedReport struct {
	Report
	IsPinned bool `json:"is_pinned"`
	SortRank int  `json:"sort_rank"`
}
