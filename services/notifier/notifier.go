// Package notifier delivers operational alerts (breaker trips, cache
// maintenance failures) through ntfy, Telegram or email.
package notifier

import (
	"bytes"
	"fmt"
	"net/http"
	"net/smtp"
	"sync"
	"time"

	"lrckit-api/logcolors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Notifier interface for different notification methods
type Notifier interface {
	Send(subject, message string) error
}

// =============================================================================
// EMAIL NOTIFIER
// =============================================================================

type EmailNotifier struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	ToEmail      string
}

func (e *EmailNotifier) Send(subject, message string) error {
	auth := smtp.PlainAuth("", e.SMTPUsername, e.SMTPPassword, e.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.FromEmail, e.ToEmail, subject, message))

	addr := e.SMTPHost + ":" + e.SMTPPort
	if err := smtp.SendMail(addr, auth, e.FromEmail, []string{e.ToEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Infof("%s Email notification sent to %s", logcolors.LogNotifier, e.ToEmail)
	return nil
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

// TelegramNotifier posts alerts to one chat through the Bot API. The bot is
// created on first use so a bad token only fails the alert, not startup.
type TelegramNotifier struct {
	BotToken string
	ChatID   int64

	// APIEndpoint overrides tgbotapi.APIEndpoint, mainly for tests
	APIEndpoint string
	HTTPClient  *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func (t *TelegramNotifier) client() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}

	endpoint := t.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	httpClient := t.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(t.BotToken, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *TelegramNotifier) Send(subject, message string) error {
	bot, err := t.client()
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.ChatID, fmt.Sprintf("*%s*\n\n%s", subject, message))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	log.Infof("%s Telegram notification sent to chat %d", logcolors.LogNotifier, t.ChatID)
	return nil
}

// =============================================================================
// NTFY.SH NOTIFIER (Simple Push Notifications)
// =============================================================================

type NtfyNotifier struct {
	Topic      string // Your unique topic name
	Server     string // Default: https://ntfy.sh
	HTTPClient *http.Client
}

func (n *NtfyNotifier) Send(subject, message string) error {
	server := n.Server
	if server == "" {
		server = "https://ntfy.sh"
	}

	req, err := http.NewRequest(http.MethodPost, server+"/"+n.Topic, bytes.NewBufferString(message))
	if err != nil {
		return fmt.Errorf("failed to create ntfy request: %w", err)
	}
	req.Header.Set("Title", subject)
	req.Header.Set("Priority", "high")
	req.Header.Set("Tags", "warning")

	client := n.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	log.Infof("%s Ntfy notification sent to topic %s", logcolors.LogNotifier, n.Topic)
	return nil
}

// TypeName names a notifier for logs
func TypeName(n Notifier) string {
	switch n.(type) {
	case *EmailNotifier:
		return "email"
	case *TelegramNotifier:
		return "telegram"
	case *NtfyNotifier:
		return "ntfy"
	default:
		return "unknown"
	}
}
