package websocket

import (
	"testing"
	"time"

	"ai-research-be/internal/pkg/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func (nopLogger) GetLogs(string, int, int) ([]logger.LogEntry, error) { return nil, nil }
func (nopLogger) GetLogById(string) (*logger.LogEntry, error)         { return nil, nil }

func startHub() *Hub {
	hub := NewHub(nil, "", nopLogger{})
	go hub.Run()
	return hub
}

func addWatcher(t *testing.T, hub *Hub, jobID string, buffer int) *Client {
	t.Helper()
	client := &Client{
		Hub:   hub,
		JobID: jobID,
		Send:  make(chan []byte, buffer),
	}
	hub.register <- client
	waitWatchers(t, hub, jobID, 1)
	return client
}

// waitWatchers polls until jobID has n registered watchers. Registration runs
// on the hub goroutine, so the map lags the register send slightly.
func waitWatchers(t *testing.T, hub *Hub, jobID string, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		got := len(hub.clients[jobID])
		hub.mu.RUnlock()
		if got == n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %d watchers", jobID, n)
}

func recv(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case msg := <-client.Send:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("watcher received nothing")
		return nil
	}
}

func assertSilent(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.Send:
		t.Fatalf("watcher unexpectedly received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitClosed(t *testing.T, client *Client) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-client.Send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel was never closed")
		}
	}
}

func TestHubRoutesEventsByJob(t *testing.T) {
	hub := startHub()

	watcherA := addWatcher(t, hub, "job-a", 4)
	watcherB := addWatcher(t, hub, "job-b", 4)
	wildcard := addWatcher(t, hub, SubscribeAll, 4)

	payload := []byte(`{"event":"job.progress","job_id":"job-a"}`)
	hub.BroadcastJob("job-a", payload)

	if got := recv(t, watcherA); string(got) != string(payload) {
		t.Fatalf("watcher got %s", got)
	}
	if got := recv(t, wildcard); string(got) != string(payload) {
		t.Fatalf("wildcard watcher got %s", got)
	}
	assertSilent(t, watcherB)
}

func TestHubWildcardDeliversOnce(t *testing.T) {
	hub := startHub()
	wildcard := addWatcher(t, hub, SubscribeAll, 4)

	hub.BroadcastJob(SubscribeAll, []byte(`{"event":"job.queued"}`))

	recv(t, wildcard)
	assertSilent(t, wildcard)
}

func TestHubDropsSlowWatchers(t *testing.T) {
	hub := startHub()

	slow := addWatcher(t, hub, "job-a", 1)
	slow.Send <- []byte("backlog") // fill the buffer so the next send overflows

	hub.BroadcastJob("job-a", []byte(`{"event":"job.progress"}`))

	waitClosed(t, slow)
	waitWatchers(t, hub, "job-a", 0)
}

func TestHubSurvivesDuplicateUnregister(t *testing.T) {
	hub := startHub()
	client := addWatcher(t, hub, "job-a", 1)

	hub.unregister <- client
	hub.unregister <- client // second pass must not double-close

	waitClosed(t, client)
	waitWatchers(t, hub, "job-a", 0)

	// The hub still works after the duplicate unregister.
	fresh := addWatcher(t, hub, "job-a", 1)
	hub.BroadcastJob("job-a", []byte(`{"event":"job.finished"}`))
	recv(t, fresh)
}
