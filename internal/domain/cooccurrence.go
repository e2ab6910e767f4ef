package domain

import "time"

// TagCooccurrence counts how often two tags appear together on the same
// source. The pair is canonicalized so Tag1 < Tag2 lexicographically; exactly
// one row exists per unordered pair and Count only ever increases.
type TagCooccurrence struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Tag1        string    `gorm:"type:text;not null;uniqueIndex:idx_tag_pair,priority:1" json:"tag1"`
	Tag2        string    `gorm:"type:text;not null;uniqueIndex:idx_tag_pair,priority:2" json:"tag2"`
	Count       int       `gorm:"default:1" json:"count"`
	LastUpdated time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

// TableName returns the database table name for TagCooccurrence.
func (TagCooccurrence) TableName() string {
	return "tag_cooccurrences"
}

// CanonicalPair orders two tags lexicographically so (a, b) and (b, a)
// address the same row.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
