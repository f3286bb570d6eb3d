package notifier

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type sentAlert struct {
	subject, message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (r *recordingNotifier) Send(subject, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentAlert{subject, message})
	return r.err
}

func (r *recordingNotifier) Sent() []sentAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentAlert(nil), r.sent...)
}

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		name        string
		event       *Event
		wantSubject string
		wantMessage string
	}{
		{
			name: "breaker open",
			event: NewEvent(EventCircuitBreakerOpen, SeverityCritical, "").
				WithData("name", "kugou").WithData("failures", 5).WithData("cooldown", "5m0s"),
			wantSubject: "🚨 Circuit Breaker OPEN: kugou",
			wantMessage: "after 5 consecutive failures",
		},
		{
			name:        "breaker recovered",
			event:       NewEvent(EventCircuitBreakerRecovered, SeverityInfo, "").WithData("name", "lrclib"),
			wantSubject: "ℹ️ Circuit Breaker Recovered: lrclib",
			wantMessage: "lrclib circuit breaker has recovered",
		},
		{
			name: "cache cleared with backup",
			event: NewEvent(EventCacheCleared, SeverityInfo, "").
				WithData("scope", "all").WithData("removed", 12).WithData("backup_path", "/tmp/b.db"),
			wantSubject: "ℹ️ Cache Cleared",
			wantMessage: "Backup saved to: /tmp/b.db",
		},
		{
			name:        "backup failed",
			event:       NewEvent(EventCacheBackupFailed, SeverityWarning, "").WithData("error", "disk full"),
			wantSubject: "⚠️ Cache Backup Failed",
			wantMessage: "disk full",
		},
		{
			name:        "server started",
			event:       NewEvent(EventServerStarted, SeverityInfo, "").WithData("port", "8080").WithData("providers", []string{"kugou", "lrclib"}),
			wantSubject: "ℹ️ Server Started",
			wantMessage: "kugou, lrclib",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, message := formatAlert(tt.event)
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if !strings.Contains(message, tt.wantMessage) {
				t.Errorf("message %q does not contain %q", message, tt.wantMessage)
			}
		})
	}

	if subject, _ := formatAlert(NewEvent("unknown", SeverityInfo, "")); subject != "" {
		t.Errorf("unknown event subject = %q, want empty", subject)
	}
}

func TestAlertHandler_Cooldown(t *testing.T) {
	rec := &recordingNotifier{}
	h := NewAlertHandler(AlertConfig{Notifiers: []Notifier{rec}, CooldownDuration: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	open := func(name string) *Event {
		return NewEvent(EventCircuitBreakerOpen, SeverityCritical, "").
			WithData("name", name).WithData("failures", 3).WithData("cooldown", "1m0s")
	}

	h.HandleEvent(open("kugou"))
	h.HandleEvent(open("kugou"))
	h.HandleEvent(open("lrclib"))
	if got := len(rec.Sent()); got != 2 {
		t.Fatalf("sent %d alerts, want 2 (one per breaker)", got)
	}

	now = now.Add(time.Minute)
	h.HandleEvent(open("kugou"))
	if got := len(rec.Sent()); got != 3 {
		t.Errorf("sent %d alerts after cooldown, want 3", got)
	}

	h.ResetCooldowns()
	h.HandleEvent(open("kugou"))
	if got := len(rec.Sent()); got != 4 {
		t.Errorf("sent %d alerts after reset, want 4", got)
	}
}

func TestAlertHandler_ContinuesAfterNotifierError(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("smtp down")}
	working := &recordingNotifier{}
	h := NewAlertHandler(AlertConfig{Notifiers: []Notifier{failing, working}})

	h.HandleEvent(NewEvent(EventCacheBackupFailed, SeverityWarning, "").WithData("error", "x"))

	if len(failing.Sent()) != 1 || len(working.Sent()) != 1 {
		t.Errorf("expected both notifiers to be tried, got %d and %d", len(failing.Sent()), len(working.Sent()))
	}
}

func TestEventBus_Publish(t *testing.T) {
	bus := NewEventBus()
	rec := &recordingNotifier{}
	NewAlertHandler(AlertConfig{Notifiers: []Notifier{rec}}).Start(bus)

	specific := make(chan *Event, 1)
	bus.Subscribe(EventCacheCleared, func(e *Event) { specific <- e })

	bus.Publish(NewEvent(EventCacheCleared, SeverityInfo, "").WithData("scope", "kugou").WithData("removed", 2))

	select {
	case e := <-specific:
		if e.Data["scope"] != "kugou" {
			t.Errorf("scope = %v, want kugou", e.Data["scope"])
		}
	case <-time.After(time.Second):
		t.Fatal("specific subscriber not called")
	}

	deadline := time.Now().Add(time.Second)
	for len(rec.Sent()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(rec.Sent()) != 1 {
		t.Errorf("alert handler sent %d alerts, want 1", len(rec.Sent()))
	}
}
