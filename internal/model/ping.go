package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	MinPingInterval     = 5
	DefaultPingInterval = 60
)

type PingStatus string

const (
	PingStatusUnknown     PingStatus = "unknown"
	PingStatusReachable   PingStatus = "reachable"
	PingStatusUnreachable PingStatus = "unreachable"
)

type Direction string

const (
	DirectionBecameUnreachable Direction = "became_unreachable"
	DirectionBecameReachable   Direction = "became_reachable"
)

// Transition returns the notifying direction of a status change, if any.
// The first observation of a reachable service is silent.
func Transition(from, to PingStatus) (Direction, bool) {
	if from == to {
		return "", false
	}
	switch to {
	case PingStatusUnreachable:
		return DirectionBecameUnreachable, true
	case PingStatusReachable:
		if from == PingStatusUnreachable {
			return DirectionBecameReachable, true
		}
	}
	return "", false
}

type PingDefinition struct {
	Name     string   `json:"name" validate:"required,max=255"`
	URL      string   `json:"url" validate:"required,url"`
	Interval int      `json:"interval" validate:"min=5"`
	Tags     []string `json:"tags" validate:"dive,required"`
}

type PingService struct {
	ID                 uuid.UUID  `json:"id"`
	ProjectID          uuid.UUID  `json:"project_uuid"`
	Name               string     `json:"name"`
	URL                string     `json:"url"`
	Interval           int        `json:"interval"`
	Tags               []string   `json:"tags"`
	Status             PingStatus `json:"status"`
	LastCheckedAt      *time.Time `json:"last_checked_at"`
	LastStatusChangeAt *time.Time `json:"last_status_change_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (s PingService) Every() time.Duration {
	return time.Duration(s.Interval) * time.Second
}

func (s PingService) Definition() PingDefinition {
	return PingDefinition{Name: s.Name, URL: s.URL, Interval: s.Interval, Tags: slices.Clone(s.Tags)}
}

func (s PingService) Clone() PingService {
	c := s
	c.Tags = slices.Clone(s.Tags)
	if s.LastCheckedAt != nil {
		t := *s.LastCheckedAt
		c.LastCheckedAt = &t
	}
	if s.LastStatusChangeAt != nil {
		t := *s.LastStatusChangeAt
		c.LastStatusChangeAt = &t
	}
	return c
}

type TransitionEvent struct {
	ProjectID   uuid.UUID  `json:"project_uuid"`
	ServiceID   uuid.UUID  `json:"service_id"`
	ServiceName string     `json:"service_name"`
	URL         string     `json:"url"`
	From        PingStatus `json:"from"`
	To          PingStatus `json:"to"`
	Direction   Direction  `json:"direction"`
	At          time.Time  `json:"at"`
}
