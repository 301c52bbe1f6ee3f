package service

import (
	"encoding/json"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
)

// Validate checks raw against the project's vocabulary and builds the record
// to store. It has no side effects.
func Validate(project model.Project, raw model.RawLog, now time.Time) (model.LogRecord, error) {
	level, ok := project.Level(raw.Level)
	if !ok {
		return model.LogRecord{}, &model.ValidationError{Kind: model.InvalidLevel, Detail: raw.Level}
	}

	tags, err := project.Tags(raw.Tags)
	if err != nil {
		return model.LogRecord{}, err
	}

	if len(raw.Metadata) > 0 {
		if _, err := json.Marshal(raw.Metadata); err != nil {
			return model.LogRecord{}, &model.ValidationError{Kind: model.MalformedMetadata, Detail: err.Error()}
		}
	}

	ts := now.UTC()
	if raw.Timestamp != nil {
		ts = *raw.Timestamp
	}

	record := model.LogRecord{
		ProjectID: project.ID,
		Level:     level,
		Message:   raw.Message,
		Tags:      tags,
		Metadata:  raw.Metadata,
		Timestamp: ts,
	}
	return record.Clone(), nil
}
