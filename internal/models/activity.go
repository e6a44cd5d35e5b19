package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Activity action constants.
const (
	ActivityLogin          = "LOGIN"
	ActivityLogout         = "LOGOUT"
	ActivityAccessGrant    = "ACCESS_GRANT"
	ActivityAccessRevoke   = "ACCESS_REVOKE"
	ActivityReportCreate   = "REPORT_CREATE"
	ActivityReportUpdate   = "REPORT_UPDATE"
	ActivityReportDelete   = "REPORT_DELETE"
	ActivityCategoryCreate = "CATEGORY_CREATE"
	ActivityCategoryUpdate = "CATEGORY_UPDATE"
	ActivityCategoryDelete = "CATEGORY_DELETE"
	ActivityUserUpdate     = "USER_UPDATE"
	ActivityTogglePin      = "PREF_TOGGLE_PIN"
	ActivityReorder        = "PREF_REORDER"
)

// ActivityDetails stores an action's semantic payload persisted as JSONB.
type ActivityDetails []byte

// Value emits the payload as JSON text so the driver binds it as jsonb, not bytea.
func (d ActivityDetails) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

// Scan reads JSON payloads back from the details column.
func (d *ActivityDetails) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*d = append((*d)[:0], v...)
	case string:
		*d = ActivityDetails(v)
	default:
		return fmt.Errorf("unsupported type %T for ActivityDetails", value)
	}
	return nil
}

// MarshalJSON inlines the stored JSON payload.
func (d ActivityDetails) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON keeps the raw JSON payload as-is.
func (d *ActivityDetails) UnmarshalJSON(data []byte) error {
	*d = append((*d)[:0], data...)
	return nil
}

// ActivityLog records a single portal action for the admin audit trail.
type ActivityLog struct {
	ID         string          `db:"id" json:"id"`
	UserID     *string         `db:"user_id" json:"user_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   *string         `db:"entity_id" json:"entity_id,omitempty"`
	Details    ActivityDetails `db:"details" json:"details,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ip_address"`
	UserAgent  string          `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
