package issue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// MaxPayloadSize is the largest issue payload Parse accepts (32MB).
const MaxPayloadSize = 32 * 1024 * 1024

// strictAPI rejects unknown object fields.
var strictAPI = sonic.Config{DisallowUnknownFields: true}.Froze()

// timestampLayouts are tried in order for string timestamps. Layouts
// without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// wireIssue mirrors Issue on the wire. Pointer fields detect absent keys.
type wireIssue struct {
	ID           *string     `json:"id"`
	Title        *string     `json:"title"`
	URL          *string     `json:"url"`
	Project      *string     `json:"project"`
	Description  *string     `json:"description"`
	Timestamp    *flexTime   `json:"timestamp"`
	InputTokens  *flexNumber `json:"inputTokens"`
	OutputTokens *flexNumber `json:"outputTokens"`
	CacheTokens  *flexNumber `json:"cacheTokens"`
	Cost         *flexNumber `json:"cost"`
	Time         *flexNumber `json:"time"`
	Status       *Status     `json:"status"`
}

// flexNumber accepts a JSON number or a numeric string.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidNumber, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q", ErrInvalidNumber, s)
		}
		*n = flexNumber(v)
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidNumber, data)
	}
	*n = flexNumber(v)
	return nil
}

// flexTime accepts a date string or epoch milliseconds.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		parsed, err := parseTimestamp(s)
		if err != nil {
			return err
		}
		*t = flexTime(parsed)
		return nil
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("%w: %s", ErrInvalidTimestamp, data)
	}
	*t = flexTime(time.UnixMilli(int64(math.Round(ms))).UTC())
	return nil
}

// parseTimestamp parses a string timestamp using the accepted layouts.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// Parse decodes and validates a JSON array of issues.
//
// The whole payload fails on the first invalid element; the returned
// error is a *ValidationError carrying the element index.
//
// Thread-safety: This function is thread-safe.
func Parse(data []byte) ([]Issue, error) {
	if len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: size=%d, max=%d", ErrMalformedJSON, len(data), MaxPayloadSize)
	}

	var elements []json.RawMessage
	if err := sonic.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	issues := make([]Issue, 0, len(elements))
	for idx, raw := range elements {
		is, err := ParseOne(raw)
		if err != nil {
			return nil, &ValidationError{Index: idx, ID: is.ID, Err: err}
		}
		issues = append(issues, is)
	}

	return issues, nil
}

// ParseOne decodes and validates a single issue object.
//
// On failure the returned issue carries whatever id could be read.
func ParseOne(data []byte) (Issue, error) {
	var w wireIssue
	if err := strictAPI.Unmarshal(data, &w); err != nil {
		var partial Issue
		if w.ID != nil {
			partial.ID = *w.ID
		}
		return partial, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	is, err := w.issue()
	if err != nil {
		return is, err
	}

	if err := is.Validate(); err != nil {
		return is, err
	}

	return is, nil
}

// issue converts the wire form, requiring every field.
func (w *wireIssue) issue() (Issue, error) {
	var is Issue
	if w.ID != nil {
		is.ID = *w.ID
	}

	missing := make([]string, 0)
	str := func(name string, p *string, dst *string) {
		if p == nil {
			missing = append(missing, name)
			return
		}
		*dst = *p
	}
	num := func(name string, p *flexNumber, dst *float64) {
		if p == nil {
			missing = append(missing, name)
			return
		}
		*dst = float64(*p)
	}

	str("id", w.ID, &is.ID)
	str("title", w.Title, &is.Title)
	str("url", w.URL, &is.URL)
	str("project", w.Project, &is.Project)
	str("description", w.Description, &is.Description)
	if w.Timestamp == nil {
		missing = append(missing, "timestamp")
	} else {
		is.Timestamp = time.Time(*w.Timestamp)
	}
	num("inputTokens", w.InputTokens, &is.InputTokens)
	num("outputTokens", w.OutputTokens, &is.OutputTokens)
	num("cacheTokens", w.CacheTokens, &is.CacheTokens)
	num("cost", w.Cost, &is.Cost)
	num("time", w.Time, &is.Time)
	if w.Status == nil {
		missing = append(missing, "status")
	} else {
		is.Status = *w.Status
	}

	if len(missing) > 0 {
		return is, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	return is, nil
}
