package model

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeNumber    FieldType = "number"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
)

type AccessLevel string

const (
	AccessLevelGlobal    AccessLevel = "global"
	AccessLevelWhitelist AccessLevel = "whitelist"
	AccessLevelDocker    AccessLevel = "docker"
)

const DefaultAntiSpamInterval = 900

var DefaultLevelTags = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

var SystemProjectID = uuid.MustParse("00000000-0000-4000-8000-00000000c0de")

var SystemTags = []string{"SYSTEM", "PING", "MONITOR", "INGEST", "VALIDATION", "SECURITY", "BLACKLIST", "SETTINGS"}

type Recipient struct {
	ID   string   `json:"id" validate:"required"`
	Tags []string `json:"tags"`
}

type NotifyPolicy struct {
	Enabled          bool        `json:"enabled"`
	Recipients       []Recipient `json:"recipients" validate:"dive"`
	AntiSpamInterval int         `json:"anti_spam_interval" validate:"gte=0"`
}

func (p NotifyPolicy) Window() time.Duration {
	return time.Duration(p.AntiSpamInterval) * time.Second
}

// RecipientsFor returns the recipients subscribed to at least one of tags.
// A recipient with no tags receives nothing.
func (p NotifyPolicy) RecipientsFor(tags []string) []Recipient {
	var out []Recipient
	for _, r := range p.Recipients {
		for _, t := range r.Tags {
			if slices.ContainsFunc(tags, func(tag string) bool { return strings.EqualFold(tag, t) }) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

type Project struct {
	ID          uuid.UUID            `json:"uuid"`
	Name        string               `json:"name" validate:"required,max=255"`
	Description string               `json:"description"`
	LogFormat   map[string]FieldType `json:"log_format" validate:"dive,keys,required,endkeys,oneof=string number boolean timestamp"`
	DefaultTags []string             `json:"default_tags" validate:"dive,required"`
	CustomTags  []string             `json:"custom_tags" validate:"dive,required"`
	Notify      NotifyPolicy         `json:"notify"`
	AccessLevel AccessLevel          `json:"access_level" validate:"oneof=global whitelist docker"`
	DebugMode   bool                 `json:"debug_mode"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ApplyDefaults fills the zero-valued fields the way a freshly created project expects them.
func (p *Project) ApplyDefaults() {
	p.Normalize()
	if p.Notify.AntiSpamInterval == 0 {
		p.Notify.AntiSpamInterval = DefaultAntiSpamInterval
	}
}

// Normalize fills the fields an update may leave out. The anti-spam interval
// is kept as given, so an explicit zero turns throttling off.
func (p *Project) Normalize() {
	if len(p.DefaultTags) == 0 {
		p.DefaultTags = slices.Clone(DefaultLevelTags)
	}
	if p.AccessLevel == "" {
		p.AccessLevel = AccessLevelGlobal
	}
	if p.LogFormat == nil {
		p.LogFormat = map[string]FieldType{}
	}
}

// Level resolves level against the default tags, ignoring case.
func (p Project) Level(level string) (string, bool) {
	level = strings.TrimSpace(level)
	if level == "" {
		return "", false
	}
	for _, t := range p.DefaultTags {
		if strings.EqualFold(t, level) {
			return t, true
		}
	}
	return "", false
}

// Tag resolves tag against the default and custom tags, ignoring case like
// Level does, and returns the spelling the project declares.
func (p Project) Tag(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	for _, tags := range [][]string{p.DefaultTags, p.CustomTags} {
		for _, t := range tags {
			if strings.EqualFold(t, tag) {
				return t, true
			}
		}
	}
	return "", false
}

// Tags resolves every tag in tags, stopping at the first unknown one.
func (p Project) Tags(tags []string) ([]string, error) {
	if tags == nil {
		return nil, nil
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		canonical, ok := p.Tag(tag)
		if !ok {
			return nil, &ValidationError{Kind: UnknownTag, Tag: tag}
		}
		out[i] = canonical
	}
	return out, nil
}

func (p Project) Clone() Project {
	c := p
	c.DefaultTags = slices.Clone(p.DefaultTags)
	c.CustomTags = slices.Clone(p.CustomTags)
	if p.LogFormat != nil {
		c.LogFormat = make(map[string]FieldType, len(p.LogFormat))
		for k, v := range p.LogFormat {
			c.LogFormat[k] = v
		}
	}
	if p.Notify.Recipients != nil {
		c.Notify.Recipients = make([]Recipient, len(p.Notify.Recipients))
		for i, r := range p.Notify.Recipients {
			c.Notify.Recipients[i] = Recipient{ID: r.ID, Tags: slices.Clone(r.Tags)}
		}
	}
	return c
}

func NewSystemProject(now time.Time) Project {
	return Project{
		ID:          SystemProjectID,
		Name:        "Logger Core",
		Description: "Internal events of the logging backend",
		LogFormat:   map[string]FieldType{"service": FieldTypeString, "extra": FieldTypeString},
		DefaultTags: slices.Clone(DefaultLevelTags),
		CustomTags:  slices.Clone(SystemTags),
		Notify:      NotifyPolicy{AntiSpamInterval: DefaultAntiSpamInterval},
		AccessLevel: AccessLevelDocker,
		DebugMode:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
