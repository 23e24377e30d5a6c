package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// BotClients wraps the two configured Telegram bot tokens (jobs/logs) and
// the chat each posts to.
type BotClients struct {
	HTTP       *http.Client
	JobsToken  string
	JobsChatID string
	LogsToken  string
	LogsChatID string
}

// HasToken reports whether the named bot ("jobs" or "logs") has a token
// configured.
func (b *BotClients) HasToken(botType string) bool {
	switch botType {
	case "jobs":
		return b.JobsToken != ""
	case "logs":
		return b.LogsToken != ""
	default:
		return false
	}
}

// Send posts text to the named bot's configured chat via the Telegram Bot
// API's sendMessage endpoint.
func (b *BotClients) Send(ctx context.Context, botType, text string) error {
	token, chatID := b.credentials(botType)
	if token == "" {
		return fmt.Errorf("notifier: no token for bot %q", botType)
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", token)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("notifier: build request: %w", err)
	}
	req.URL.RawQuery = form.Encode()

	client := b.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: send to %s: %w", botType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notifier: %s bot returned status %s", botType, strconv.Itoa(resp.StatusCode))
	}
	return nil
}

func (b *BotClients) credentials(botType string) (token, chatID string) {
	switch botType {
	case "jobs":
		return b.JobsToken, b.JobsChatID
	case "logs":
		return b.LogsToken, b.LogsChatID
	default:
		return "", ""
	}
}
