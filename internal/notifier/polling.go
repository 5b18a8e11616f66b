package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := int64(0)
	client := &http.Client{Timeout: 35 * time.Second}

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.endpoint("getUpdates"), offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			t.logger.Error().Err(err).Msg("create polling request")
			return
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Warn().Err(err).Msg("polling request failed")
			sleep(ctx, 5*time.Second)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.logger.Warn().Err(err).Msg("read polling response")
			continue
		}

		if !gjson.GetBytes(body, "ok").Bool() {
			t.logger.Warn().Str("body", string(body)).Msg("polling response not ok")
			sleep(ctx, 5*time.Second)
			continue
		}
		offset = dispatchUpdates(body, offset, func(text string) {
			t.logger.Info().Str("command", text).Msg("received command")
			if reply := handler(ctx, text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					t.logger.Error().Err(err).Msg("send reply")
				}
			}
		})
	}
}

// dispatchUpdates calls fn for every text message in a getUpdates response and
// returns the offset acknowledging them.
func dispatchUpdates(body []byte, offset int64, fn func(text string)) int64 {
	gjson.GetBytes(body, "result").ForEach(func(_, u gjson.Result) bool {
		offset = u.Get("update_id").Int() + 1
		if text := strings.TrimSpace(u.Get("message.text").String()); text != "" {
			fn(text)
		}
		return true
	})
	return offset
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
