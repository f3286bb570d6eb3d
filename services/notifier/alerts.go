package notifier

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	// Default cooldown between alerts of the same type
	DefaultAlertCooldown = 15 * time.Minute
)

// AlertHandler turns events into notifications. Alerts of one type and
// subject are sent at most once per cooldown.
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[string]time.Time
	cooldownDuration time.Duration
	now              func() time.Time
	mu               sync.Mutex
}

// AlertConfig holds configuration for the alert handler
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}

	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[string]time.Time),
		cooldownDuration: cooldown,
		now:              time.Now,
	}
}

// Start subscribes the handler to bus
func (h *AlertHandler) Start(bus *EventBus) {
	bus.SubscribeAll(h.HandleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotifier, h.cooldownDuration, len(h.notifiers))
}

// HandleEvent formats event and sends it unless a cooldown is active
func (h *AlertHandler) HandleEvent(event *Event) {
	subject, message := formatAlert(event)
	if subject == "" {
		return
	}

	if !h.shouldAlert(string(event.Type) + "|" + subject) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotifier, event.Type)
		return
	}

	h.sendAlert(subject, message)
}

func (h *AlertHandler) shouldAlert(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if last, ok := h.cooldowns[key]; ok && now.Sub(last) < h.cooldownDuration {
		return false
	}
	h.cooldowns[key] = now
	return true
}

// formatAlert formats an event into a notification. Unknown events yield an
// empty subject.
func formatAlert(event *Event) (subject, message string) {
	str := func(key string) string {
		s, _ := event.Data[key].(string)
		return s
	}
	num := func(key string) int {
		n, _ := event.Data[key].(int)
		return n
	}

	switch event.Type {
	case EventCircuitBreakerOpen:
		subject = "Circuit Breaker OPEN: " + str("name")
		message = fmt.Sprintf(
			"The %s circuit breaker has tripped after %d consecutive failures.\n\n"+
				"Requests to this provider are blocked for %s and served from cache where possible.",
			str("name"), num("failures"), str("cooldown"))

	case EventCircuitBreakerRecovered:
		subject = "Circuit Breaker Recovered: " + str("name")
		message = fmt.Sprintf("The %s circuit breaker has recovered and is now operational.", str("name"))

	case EventCacheBackupFailed:
		subject = "Cache Backup Failed"
		message = fmt.Sprintf("Failed to create cache backup.\n\nError: %s\n\nAction: Check disk space and permissions.", str("error"))

	case EventCacheCleared:
		subject = "Cache Cleared"
		message = fmt.Sprintf("Cleared %d entries (%s).", num("removed"), str("scope"))
		if path := str("backup_path"); path != "" {
			message += "\n\nBackup saved to: " + path
		}

	case EventLocalWatchStopped:
		subject = "Local Lyrics Watcher Stopped"
		message = fmt.Sprintf("Changes in %s are no longer picked up until restart.\n\nError: %s", str("dir"), str("error"))

	case EventServerStarted:
		providers, _ := event.Data["providers"].([]string)
		subject = "Server Started"
		message = fmt.Sprintf("Server started on port %s with providers: %s.", str("port"), strings.Join(providers, ", "))

	default:
		return "", ""
	}

	switch event.Severity {
	case SeverityCritical:
		subject = "🚨 " + subject
	case SeverityWarning:
		subject = "⚠️ " + subject
	case SeverityInfo:
		subject = "ℹ️ " + subject
	}
	return subject, message
}

// sendAlert sends the alert through all configured notifiers
func (h *AlertHandler) sendAlert(subject, message string) {
	if len(h.notifiers) == 0 {
		log.Warnf("%s No notifiers configured, skipping alert: %s", logcolors.LogNotifier, subject)
		return
	}

	log.Infof("%s Sending alert: %s", logcolors.LogNotifier, subject)

	sent := 0
	for _, n := range h.notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Errorf("%s Failed to send alert via %s: %v", logcolors.LogNotifier, TypeName(n), err)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Infof("%s Alert sent via %d/%d notifiers", logcolors.LogNotifier, sent, len(h.notifiers))
	}
}

// ResetCooldowns forgets every recorded alert
func (h *AlertHandler) ResetCooldowns() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cooldowns = make(map[string]time.Time)
}
