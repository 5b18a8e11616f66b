package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// maxMessageLen is the Telegram sendMessage text limit.
const maxMessageLen = 4096

// TelegramNotifier pushes reports to one chat through the Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier creates a notifier; proxyURL may be empty.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger zerolog.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if u, err := url.Parse(proxyURL); proxyURL != "" && err == nil {
		transport.Proxy = http.ProxyURL(u)
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  "https://api.telegram.org",
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
		logger:   logger.With().Str("component", "telegram").Logger(),
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, method)
}

// Send delivers text, split into several messages when it exceeds the API limit.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		if err := t.sendOne(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendOne(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	if desc := gjson.GetBytes(raw, "description"); desc.Exists() {
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, desc.String())
	}
	return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

// SendWithRetry retries Send with exponential backoff starting at one second.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = t.Send(ctx, text); err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		backoff := time.Second << attempt
		t.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("telegram send failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, err)
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	return append(parts, text)
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
