package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AlertSource string

const (
	AlertSourcePing AlertSource = "ping"
	AlertSourceLog  AlertSource = "log"
)

type Alert struct {
	ProjectID   uuid.UUID   `json:"project_uuid"`
	ProjectName string      `json:"project_name"`
	Source      AlertSource `json:"source"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Tags        []string    `json:"tags"`
	At          time.Time   `json:"at"`
}

func NewPingAlert(project Project, event TransitionEvent, tags []string) Alert {
	title := fmt.Sprintf("%s is DOWN", event.ServiceName)
	if event.Direction == DirectionBecameReachable {
		title = fmt.Sprintf("%s is back UP", event.ServiceName)
	}
	return Alert{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Source:      AlertSourcePing,
		Title:       title,
		Message:     fmt.Sprintf("%s (%s) changed from %s to %s", event.ServiceName, event.URL, event.From, event.To),
		Tags:        tags,
		At:          event.At,
	}
}

func NewLogAlert(project Project, record LogRecord) Alert {
	return Alert{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Source:      AlertSourceLog,
		Title:       fmt.Sprintf("[%s] new log in %s", record.Level, project.Name),
		Message:     record.Message,
		Tags:        append([]string{record.Level}, record.Tags...),
		At:          record.Timestamp,
	}
}

func (a Alert) Text() string {
	return fmt.Sprintf("[%s] %s\n%s\n%s", a.ProjectName, a.Title, a.Message, a.At.UTC().Format(time.RFC3339))
}
