package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Source categories. Editorial enum, German labels kept from the catalog's
// original taxonomy.
const (
	CategoryTutorial    = "Tutorial"
	CategoryWerkzeug    = "Werkzeug"
	CategoryMaterial    = "Material"
	CategoryTechnik     = "Technik"
	CategoryInspiration = "Inspiration"
	CategoryCommunity   = "Community"
	CategoryGeschichte  = "Geschichte"
	CategorySonstiges   = "Sonstiges"
)

// Categories lists all valid source categories.
var Categories = []string{
	CategoryTutorial, CategoryWerkzeug, CategoryMaterial, CategoryTechnik,
	CategoryInspiration, CategoryCommunity, CategoryGeschichte, CategorySonstiges,
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Source represents a curated external article with AI-generated metadata.
// Summary holds a short headline line followed by a longer detail block,
// newline separated. SourceQuery is a denormalized text back-reference to the
// search query that produced the source; it is not a foreign key, so deleting
// or editing a query never orphans its sources.
type Source struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	URL            string      `gorm:"type:text;not null;uniqueIndex:idx_sources_url" json:"url"`
	Title          string      `gorm:"type:text;not null" json:"title"`
	Category       string      `gorm:"type:text;not null;index:idx_sources_category" json:"category"`
	Summary        string      `gorm:"type:text" json:"summary"`
	Tags           StringArray `gorm:"type:text" json:"tags"`
	Language       string      `gorm:"type:text;index:idx_sources_language" json:"language"`
	DateAdded      time.Time   `gorm:"autoCreateTime" json:"date_added"`
	SourceQuery    *string     `gorm:"type:text" json:"source_query"`
	RelevanceScore int         `gorm:"default:5" json:"relevance_score"`
	CorrectedScore *int        `json:"corrected_score"`
	StarRating     bool        `gorm:"default:false;index:idx_sources_starred" json:"star_rating"`
	LastUpdated    time.Time   `gorm:"autoUpdateTime" json:"last_updated"`
}

// TableName returns the database table name for Source.
func (Source) TableName() string {
	return "sources"
}

// DisplayScore returns the score used for display and ranking: the operator
// override when present, otherwise the generated relevance score.
func (s *Source) DisplayScore() int {
	if s.CorrectedScore != nil {
		return *s.CorrectedScore
	}
	return s.RelevanceScore
}

// HasTag reports whether the source carries the given tag.
func (s *Source) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SourceMetadata is the structured metadata produced by the generative-AI
// service for a candidate URL.
type SourceMetadata struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	Language     string   `json:"language"`
	QualityScore int      `json:"quality_score"`
}
