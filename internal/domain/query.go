package domain

import "time"

// QueryStatus represents the lifecycle state of a queued search query.
// Lifecycle: pending -> processing -> {processed, failed}. A processing query
// may be forced to failed by an external cancellation; processed and failed
// are terminal.
type QueryStatus string

const (
	QueryStatusPending    QueryStatus = "pending"
	QueryStatusProcessing QueryStatus = "processing"
	QueryStatusProcessed  QueryStatus = "processed"
	QueryStatusFailed     QueryStatus = "failed"
)

// SearchQuery represents a queued free-text query awaiting or having
// undergone automated ingestion.
type SearchQuery struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Query         string      `gorm:"type:text;not null" json:"query"`
	Status        QueryStatus `gorm:"type:text;default:pending;index:idx_search_queries_status" json:"status"`
	DateAdded     time.Time   `gorm:"autoCreateTime" json:"date_added"`
	DateProcessed *time.Time  `json:"date_processed"`
	ErrorMessage  *string     `gorm:"type:text" json:"error_message"`
	ResultsCount  int         `gorm:"default:0" json:"results_count"`
	IsAIGenerated bool        `gorm:"default:false" json:"is_ai_generated"`
}

// TableName returns the database table name for SearchQuery.
func (SearchQuery) TableName() string {
	return "search_queries"
}

// statusOrder drives queue listing: actionable states first.
var statusOrder = map[QueryStatus]int{
	QueryStatusPending:    1,
	QueryStatusProcessing: 2,
	QueryStatusFailed:     3,
	QueryStatusProcessed:  4,
}

// StatusPriority returns the listing priority for a status; unknown statuses
// sort last.
func StatusPriority(s QueryStatus) int {
	if p, ok := statusOrder[s]; ok {
		return p
	}
	return 999
}
