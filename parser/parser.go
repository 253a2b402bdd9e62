// Package parser holds the text-level extraction helpers used on list items.
//
// Each field parser returns the parsed value and whether a usable value was
// found. Callers fall back to the zero value on false; no parser panics or
// returns an error for malformed input.
package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-booklist/models"
)

var (
	avgRatingPattern   = regexp.MustCompile(`(\d+\.\d+)\s*avg`)
	ratingCountPattern = regexp.MustCompile(`[—–]\s*([\d,]+)\s*ratings`)
	scorePattern       = regexp.MustCompile(`(?i)score:?\s*([\d,]+)`)
	votesPattern       = regexp.MustCompile(`([\d,]+)\s*people voted`)
)

// CleanNumber strips thousands separators and parses the rest as an integer.
// Anything that does not parse yields 0.
func CleanNumber(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(text, ",", "")))
	if err != nil {
		return 0
	}
	return n
}

// CleanName removes one leading and one trailing double quote.
func CleanName(name string) string {
	name = strings.TrimPrefix(name, `"`)
	return strings.TrimSuffix(name, `"`)
}

// ExtractFloat parses the first capture group of a regexp submatch.
// A nil match or an unparseable group yields 0.
func ExtractFloat(match []string) float64 {
	if len(match) < 2 {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(match[1]), 64)
	if err != nil {
		return 0
	}
	return f
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

// AvgRating finds "<float> avg" in the rating text.
func AvgRating(ratingText string) (float64, bool) {
	match := avgRatingPattern.FindStringSubmatch(ratingText)
	if match == nil {
		return 0, false
	}
	return ExtractFloat(match), true
}

// RatingCount finds "— 1,234 ratings" in the rating text.
func RatingCount(ratingText string) (int, bool) {
	match := ratingCountPattern.FindStringSubmatch(ratingText)
	if match == nil {
		return 0, false
	}
	return CleanNumber(match[1]), true
}

// Score finds the first "score: 1,234" among the item's text nodes.
func Score(nodes []string) (float64, bool) {
	match := MatchText(nodes, scorePattern)
	if match == nil {
		return 0, false
	}
	return float64(CleanNumber(match[1])), true
}

// VoteCount finds the first "123 people voted" among the item's text nodes.
func VoteCount(nodes []string) (int, bool) {
	match := MatchText(nodes, votesPattern)
	if match == nil {
		return 0, false
	}
	return CleanNumber(match[1]), true
}

// MatchText returns the submatch of the first node matched by re.
func MatchText(nodes []string, re *regexp.Regexp) []string {
	for _, node := range nodes {
		if match := re.FindStringSubmatch(node); match != nil {
			return match
		}
	}
	return nil
}

// ValidateRecord rejects records no extractor should have produced.
func ValidateRecord(r *models.Record) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if r.RatingCount < 0 {
		return fmt.Errorf("negative rating count for %q", r.Name)
	}
	if r.VoteCount < 0 {
		return fmt.Errorf("negative vote count for %q", r.Name)
	}
	if math.IsNaN(r.AvgRating) || math.IsInf(r.AvgRating, 0) {
		return fmt.Errorf("invalid average rating for %q", r.Name)
	}
	if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
		return fmt.Errorf("invalid score for %q", r.Name)
	}
	return nil
}
