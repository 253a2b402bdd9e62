package parser

import (
	"math"
	"regexp"
	"testing"

	"github.com/aluiziolira/go-scrape-booklist/models"
)

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "thousands separators", input: "1,234,567", expected: 1234567},
		{name: "plain integer", input: "1234", expected: 1234},
		{name: "surrounding whitespace", input: " 12,000 ", expected: 12000},
		{name: "non numeric", input: "invalid", expected: 0},
		{name: "empty string", input: "", expected: 0},
		{name: "only separators", input: ",,", expected: 0},
		{name: "decimal", input: "4.5", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanNumber(tt.input); got != tt.expected {
				t.Errorf("CleanNumber(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "quoted", input: `"Test Book"`, expected: "Test Book"},
		{name: "unquoted", input: "Normal Book", expected: "Normal Book"},
		{name: "empty string", input: "", expected: ""},
		{name: "double quoted strips one pair", input: `""Nested""`, expected: `"Nested"`},
		{name: "inner quotes kept", input: `The "Best" Book`, expected: `The "Best" Book`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.input); got != tt.expected {
				t.Errorf("CleanName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractFloat(t *testing.T) {
	if got := ExtractFloat(nil); got != 0 {
		t.Fatalf("ExtractFloat(nil) = %v, want 0", got)
	}
	if got := ExtractFloat([]string{"4.5 avg", "4.5"}); got != 4.5 {
		t.Fatalf("ExtractFloat(4.5) = %v, want 4.5", got)
	}
	if got := ExtractFloat([]string{"x", "not-a-number"}); got != 0 {
		t.Fatalf("ExtractFloat(invalid) = %v, want 0", got)
	}
}

func TestRound(t *testing.T) {
	if got := Round(4.126, 2); got != 4.13 {
		t.Fatalf("Round(4.126, 2) = %v, want 4.13", got)
	}
	if got := Round(1234.04, 1); got != 1234.0 {
		t.Fatalf("Round(1234.04, 1) = %v, want 1234", got)
	}
}

func TestAvgRatingAndCount(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantRating float64
		wantOK     bool
		wantCount  int
		wantCntOK  bool
	}{
		{
			name:       "em dash",
			text:       "4.12 avg rating — 1,234,567 ratings",
			wantRating: 4.12,
			wantOK:     true,
			wantCount:  1234567,
			wantCntOK:  true,
		},
		{
			name:       "en dash",
			text:       "3.90 avg rating – 88 ratings",
			wantRating: 3.9,
			wantOK:     true,
			wantCount:  88,
			wantCntOK:  true,
		},
		{
			name:       "hyphen is not a separator",
			text:       "3.90 avg rating - 88 ratings",
			wantRating: 3.9,
			wantOK:     true,
			wantCount:  0,
			wantCntOK:  false,
		},
		{
			name: "empty",
			text: "",
		},
		{
			name: "integer rating does not match",
			text: "4 avg rating — 10 ratings",
			// the count is still found on its own
			wantCount: 10,
			wantCntOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating, ok := AvgRating(tt.text)
			if rating != tt.wantRating || ok != tt.wantOK {
				t.Errorf("AvgRating(%q) = %v/%v, want %v/%v", tt.text, rating, ok, tt.wantRating, tt.wantOK)
			}
			count, ok := RatingCount(tt.text)
			if count != tt.wantCount || ok != tt.wantCntOK {
				t.Errorf("RatingCount(%q) = %d/%v, want %d/%v", tt.text, count, ok, tt.wantCount, tt.wantCntOK)
			}
		})
	}
}

func TestScoreAndVotes(t *testing.T) {
	nodes := []string{
		"The Score",
		"Jane Doe",
		"\n    score: 12,345\n  ",
		"and 1,203 people voted",
	}

	score, ok := Score(nodes)
	if !ok || score != 12345 {
		t.Fatalf("Score = %v/%v, want 12345/true", score, ok)
	}
	votes, ok := VoteCount(nodes)
	if !ok || votes != 1203 {
		t.Fatalf("VoteCount = %d/%v, want 1203/true", votes, ok)
	}

	if _, ok := Score([]string{"Score Keeper", "no numbers"}); ok {
		t.Fatalf("Score should not match without digits")
	}
	if v, ok := VoteCount(nil); ok || v != 0 {
		t.Fatalf("VoteCount(nil) = %d/%v, want 0/false", v, ok)
	}
	if s, ok := Score([]string{"SCORE 9"}); !ok || s != 9 {
		t.Fatalf("Score should be case-insensitive, got %v/%v", s, ok)
	}
}

func TestMatchText(t *testing.T) {
	re := regexp.MustCompile(`(\d+) items`)
	match := MatchText([]string{"none here", "3 items", "4 items"}, re)
	if match == nil || match[1] != "3" {
		t.Fatalf("MatchText = %v, want first node match", match)
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *models.Record
		wantErr bool
	}{
		{name: "valid", record: &models.Record{Name: "Book", Author: "A", AvgRating: 4.1, RatingCount: 10}},
		{name: "zero values valid", record: &models.Record{}},
		{name: "nil", record: nil, wantErr: true},
		{name: "negative count", record: &models.Record{Name: "Book", RatingCount: -1}, wantErr: true},
		{name: "negative votes", record: &models.Record{Name: "Book", VoteCount: -1}, wantErr: true},
		{name: "nan rating", record: &models.Record{Name: "Book", AvgRating: math.NaN()}, wantErr: true},
		{name: "inf score", record: &models.Record{Name: "Book", Score: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
