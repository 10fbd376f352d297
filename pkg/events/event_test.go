package events

import (
	"testing"
	"time"
)

var _ Event = BaseEvent{}

func TestNewStampsEvent(t *testing.T) {
	before := time.Now()
	evt := New("job.finished", map[string]interface{}{"job_id": "j-1", "status": "finished"})
	after := time.Now()

	if evt.EventType() != "job.finished" {
		t.Fatalf("EventType() = %q, want %q", evt.EventType(), "job.finished")
	}
	if got := evt.Payload()["job_id"]; got != "j-1" {
		t.Fatalf("Payload()[job_id] = %v, want j-1", got)
	}
	if got := evt.Payload()["status"]; got != "finished" {
		t.Fatalf("Payload()[status] = %v, want finished", got)
	}

	ts := evt.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Fatalf("Timestamp() = %v, outside [%v, %v]", ts, before, after)
	}
}

func TestNewWithNilData(t *testing.T) {
	evt := New("job.started", nil)

	if evt.EventType() != "job.started" {
		t.Fatalf("EventType() = %q, want %q", evt.EventType(), "job.started")
	}
	if evt.Payload() != nil {
		t.Fatalf("Payload() = %v, want nil", evt.Payload())
	}
	if evt.Timestamp().IsZero() {
		t.Fatal("Timestamp() is zero, want stamped")
	}
}
