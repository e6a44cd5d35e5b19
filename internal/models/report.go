package models

import "time"

// Report represents an embedded BI report in the catalog.
type Report struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	EmbedURL    string    `db:"embed_url" json:"embed_url"`
	CategoryID  *string   `db:"category_id" json:"category_id,omitempty"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ReportWithCategory bundles a report with its optional category for the viewer.
type ReportWithCategory struct {
	Report
	Category *Category `json:"category,omitempty"`
}

// ReportFilter captures filtering criteria for listing catalog reports.
type ReportFilter struct {
	Active *bool
	Search string
}

// Category groups reports in the sidebar. Optional; a category holding
// reports cannot be deleted.
type Category struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	Icon        string  `db:"icon" json:"icon"`
	SortOrder   int     `db:"sort_order" json:"sort_order"`
}
