package models

// MenuReport is a sidebar entry for one accessible report.
type MenuReport struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsPinned bool   `json:"is_pinned"`
}

// MenuCategory groups the caller's accessible reports for the sidebar.
type MenuCategory struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Icon      string       `json:"icon"`
	SortOrder int          `json:"sort_order"`
	Reports   []MenuReport `json:"reports"`
}

// DashboardSummary backs the portal landing page counters.
type DashboardSummary struct {
	ReportCount   int     `json:"report_count"`
	CategoryCount int     `json:"category_count"`
	PinnedCount   int     `json:"pinned_count"`
	Department    *string `json:"department,omitempty"`
}
