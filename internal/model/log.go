package model

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	LogLevelDebug    = "DEBUG"
	LogLevelInfo     = "INFO"
	LogLevelWarning  = "WARNING"
	LogLevelError    = "ERROR"
	LogLevelCritical = "CRITICAL"
)

const (
	MetadataIP      = "ip"
	MetadataService = "service"
	MetadataUser    = "user"
	MetadataExtra   = "extra"
)

type RawLog struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Tags      []string       `json:"tags"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp *time.Time     `json:"timestamp"`
}

type LogRecord struct {
	ID        uuid.UUID      `json:"id"`
	ProjectID uuid.UUID      `json:"project_uuid"`
	Seq       int64          `json:"seq"`
	Pos       int64          `json:"-"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Tags      []string       `json:"tags"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

type RecordID struct {
	ID  uuid.UUID `json:"id"`
	Seq int64     `json:"seq"`
}

// Before orders records by timestamp, ties broken by insertion order.
func (r LogRecord) Before(o LogRecord) bool {
	if !r.Timestamp.Equal(o.Timestamp) {
		return r.Timestamp.Before(o.Timestamp)
	}
	return r.Pos < o.Pos
}

func (r LogRecord) MetadataString(key string) (string, bool) {
	v, ok := r.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (r LogRecord) Clone() LogRecord {
	c := r
	c.Tags = slices.Clone(r.Tags)
	c.Metadata = cloneMap(r.Metadata)
	return c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

type LogFilter struct {
	ProjectID *uuid.UUID
	Level     string
	Text      string
	Tag       string
	Service   string
	User      string
	IP        string
	From      *time.Time
	To        *time.Time
}

// Matches reports whether r satisfies every set field of the filter.
func (f LogFilter) Matches(r LogRecord) bool {
	if f.ProjectID != nil && r.ProjectID != *f.ProjectID {
		return false
	}
	if f.Level != "" && r.Level != f.Level {
		return false
	}
	if f.Text != "" && !strings.Contains(strings.ToLower(r.Message), strings.ToLower(f.Text)) {
		return false
	}
	if f.Tag != "" && !slices.Contains(r.Tags, f.Tag) {
		return false
	}
	if !matchMetadata(r, MetadataService, f.Service) || !matchMetadata(r, MetadataUser, f.User) || !matchMetadata(r, MetadataIP, f.IP) {
		return false
	}
	if f.From != nil && r.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Timestamp.After(*f.To) {
		return false
	}
	return true
}

func matchMetadata(r LogRecord, key, want string) bool {
	if want == "" {
		return true
	}
	got, ok := r.MetadataString(key)
	return ok && got == want
}

type DeleteFilter struct {
	ProjectID *uuid.UUID
	Level     string
}

func (f DeleteFilter) Matches(r LogRecord) bool {
	if f.ProjectID != nil && r.ProjectID != *f.ProjectID {
		return false
	}
	return f.Level == "" || r.Level == f.Level
}
