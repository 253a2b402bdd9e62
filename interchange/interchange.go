// Package interchange reads and writes the delimited text file passed from the
// collector to the analyzer.
//
// The format has a fixed header and column order, never quotes fields, and
// escapes the delimiter, double quote, backslash, CR and LF with a backslash.
// Rows end in CRLF; readers accept LF as well.
package interchange

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-booklist/models"
)

const (
	delimiter = ','
	escape    = '\\'
	lineEnd   = "\r\n"
)

// Header is the column set and order of the interchange file.
var Header = []string{"Name", "Author", "Avg Rating", "Rating Count", "Score", "Vote Count"}

var (
	// ErrHeaderMismatch is returned when the first row is not Header.
	ErrHeaderMismatch = errors.New("interchange: header mismatch")
	// ErrMalformedRow is returned for rows that cannot be decoded into a record.
	ErrMalformedRow = errors.New("interchange: malformed row")
)

// EscapeField escapes the characters that would otherwise end a field or row.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, ",\"\\\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case delimiter, '"', escape, '\r', '\n':
			b.WriteRune(escape)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatFloat renders f the way the file has always carried floats: shortest
// representation, always with a fractional part ("4.5", "0.0", "1234.0").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// EncodeRecord returns the escaped fields of r in Header order.
func EncodeRecord(r *models.Record) []string {
	return []string{
		EscapeField(r.Name),
		EscapeField(r.Author),
		FormatFloat(r.AvgRating),
		strconv.Itoa(r.RatingCount),
		FormatFloat(r.Score),
		strconv.Itoa(r.VoteCount),
	}
}

// Writer writes records to an io.Writer, one Write call per row.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w. Nothing is buffered.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.writeRow(Header)
}

// Write writes one record row.
func (w *Writer) Write(r *models.Record) error {
	return w.writeRow(EncodeRecord(r))
}

func (w *Writer) writeRow(fields []string) error {
	if _, err := io.WriteString(w.w, strings.Join(fields, string(delimiter))+lineEnd); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// Reader decodes records from an interchange file.
type Reader struct {
	r          *bufio.Reader
	line       int
	headerRead bool
}

// NewReader returns a reader positioned before the header row.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadHeader consumes and checks the header row.
func (r *Reader) ReadHeader() error {
	fields, err := r.readRow()
	if err == io.EOF {
		return fmt.Errorf("%w: file is empty", ErrHeaderMismatch)
	}
	if err != nil {
		return err
	}
	if len(fields) != len(Header) {
		return fmt.Errorf("%w: got %d columns, want %d", ErrHeaderMismatch, len(fields), len(Header))
	}
	for i, name := range Header {
		if strings.TrimSpace(fields[i]) != name {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i+1, fields[i], name)
		}
	}
	r.headerRead = true
	return nil
}

// Read returns the next record, or io.EOF after the last row.
func (r *Reader) Read() (models.Record, error) {
	if !r.headerRead {
		if err := r.ReadHeader(); err != nil {
			return models.Record{}, err
		}
	}
	fields, err := r.readRow()
	if err != nil {
		return models.Record{}, err
	}
	return r.decode(fields)
}

// ReadAll reads the header and every record.
func (r *Reader) ReadAll() ([]models.Record, error) {
	var records []models.Record
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func (r *Reader) decode(fields []string) (models.Record, error) {
	if len(fields) != len(Header) {
		return models.Record{}, fmt.Errorf("line %d: %w: got %d fields, want %d", r.line, ErrMalformedRow, len(fields), len(Header))
	}
	avg, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return models.Record{}, r.fieldErr(Header[2], fields[2])
	}
	count, err := parseCount(fields[3])
	if err != nil {
		return models.Record{}, r.fieldErr(Header[3], fields[3])
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return models.Record{}, r.fieldErr(Header[4], fields[4])
	}
	votes, err := parseCount(fields[5])
	if err != nil {
		return models.Record{}, r.fieldErr(Header[5], fields[5])
	}
	return models.Record{
		Name:        fields[0],
		Author:      fields[1],
		AvgRating:   avg,
		RatingCount: count,
		Score:       score,
		VoteCount:   votes,
	}, nil
}

func (r *Reader) fieldErr(column, value string) error {
	return fmt.Errorf("line %d: %w: %s is %q", r.line, ErrMalformedRow, column, value)
}

// parseCount accepts integers and integral floats such as "12.0".
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	return int(f), nil
}

// readRow splits the next non-blank row into unescaped fields.
func (r *Reader) readRow() ([]string, error) {
	for {
		fields, blank, err := r.scanRow()
		if err != nil {
			return nil, err
		}
		if !blank {
			return fields, nil
		}
	}
}

func (r *Reader) scanRow() (fields []string, blank bool, err error) {
	var (
		field   strings.Builder
		escaped bool
		read    bool
	)
	r.line++
	startLine := r.line
	for {
		c, _, rerr := r.r.ReadRune()
		if rerr == io.EOF {
			if escaped {
				return nil, false, fmt.Errorf("line %d: %w: dangling escape at end of file", startLine, ErrMalformedRow)
			}
			if !read {
				return nil, false, io.EOF
			}
			return append(fields, field.String()), false, nil
		}
		if rerr != nil {
			return nil, false, fmt.Errorf("read line %d: %w", startLine, rerr)
		}
		read = true

		if escaped {
			if c == '\n' {
				r.line++
			}
			field.WriteRune(c)
			escaped = false
			continue
		}

		switch c {
		case escape:
			escaped = true
		case delimiter:
			fields = append(fields, field.String())
			field.Reset()
		case '\r':
			if next, _, perr := r.r.ReadRune(); perr == nil && next != '\n' {
				_ = r.r.UnreadRune()
			}
			return r.endRow(fields, field.String())
		case '\n':
			return r.endRow(fields, field.String())
		default:
			field.WriteRune(c)
		}
	}
}

func (r *Reader) endRow(fields []string, last string) ([]string, bool, error) {
	if len(fields) == 0 && last == "" {
		return nil, true, nil
	}
	return append(fields, last), false, nil
}
