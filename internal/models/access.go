package models

import "time"

// ReportAccess is a grant row: its presence is the authorization fact that a
// user may view a report.
type ReportAccess struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ReportID  string    `db:"report_id" json:"report_id"`
	GrantedBy *string   `db:"granted_by" json:"granted_by,omitempty"`
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}

// BulkAccessResult reports the outcome of a matrix "select all" batch. The
// batch is not transactional; callers reload authoritative state on failures.
type BulkAccessResult struct {
	Granted int      `json:"granted"`
	Revoked int      `json:"revoked"`
	Failed  []string `json:"failed,omitempty"`
}
