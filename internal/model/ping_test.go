package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		from, to PingStatus
		want     Direction
		notifies bool
	}{
		{"unknown to reachable is silent", PingStatusUnknown, PingStatusReachable, "", false},
		{"unknown to unreachable", PingStatusUnknown, PingStatusUnreachable, DirectionBecameUnreachable, true},
		{"reachable to unreachable", PingStatusReachable, PingStatusUnreachable, DirectionBecameUnreachable, true},
		{"unreachable to reachable", PingStatusUnreachable, PingStatusReachable, DirectionBecameReachable, true},
		{"steady reachable", PingStatusReachable, PingStatusReachable, "", false},
		{"steady unreachable", PingStatusUnreachable, PingStatusUnreachable, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, ok := Transition(tt.from, tt.to)
			assert.Equal(t, tt.notifies, ok)
			assert.Equal(t, tt.want, dir)
		})
	}
}

func TestPingService_Clone(t *testing.T) {
	checked := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := PingService{Name: "api", Interval: 30, Tags: []string{"ERROR"}, LastCheckedAt: &checked}

	c := svc.Clone()
	c.Tags[0] = "INFO"
	*c.LastCheckedAt = checked.Add(time.Hour)

	assert.Equal(t, []string{"ERROR"}, svc.Tags)
	assert.Equal(t, checked, *svc.LastCheckedAt)
	assert.Nil(t, c.LastStatusChangeAt)
	assert.Equal(t, 30*time.Second, svc.Every())
}

func TestNewPingAlert(t *testing.T) {
	project := Project{Name: "Shop"}
	event := TransitionEvent{ServiceName: "api", URL: "http://api", From: PingStatusReachable, To: PingStatusUnreachable, Direction: DirectionBecameUnreachable}

	alert := NewPingAlert(project, event, []string{"ERROR"})
	assert.Equal(t, "api is DOWN", alert.Title)
	assert.Equal(t, AlertSourcePing, alert.Source)

	event.Direction = DirectionBecameReachable
	assert.Equal(t, "api is back UP", NewPingAlert(project, event, nil).Title)
}
