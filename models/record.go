// Package models defines data structures for the collector and analyzer.
package models

import "time"

// Record is one normalized entry scraped from the list page.
type Record struct {
	Name        string  `csv:"Name" json:"name"`
	Author      string  `csv:"Author" json:"author"`
	AvgRating   float64 `csv:"Avg Rating" json:"avg_rating"`
	RatingCount int     `csv:"Rating Count" json:"rating_count"`
	Score       float64 `csv:"Score" json:"score"`
	VoteCount   int     `csv:"Vote Count" json:"vote_count"`
}

// RecordKey identifies a record. Rows sharing a key are duplicates.
type RecordKey struct {
	Name   string
	Author string
}

// Key returns the (Name, Author) identity of r.
func (r Record) Key() RecordKey {
	return RecordKey{Name: r.Name, Author: r.Author}
}

// ScraperResult holds the overall result of a collection run.
type ScraperResult struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalCount      int
	SkippedCount    int
	SkippedByReason map[string]int
	ErrorCount      int
	ErrorsByType    map[string]int
	RequestCount    int
	PageCount       int
	Truncated       bool
}
