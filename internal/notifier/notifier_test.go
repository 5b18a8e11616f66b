package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/backtest"
	"TrendSentinel/internal/fund"
	"TrendSentinel/internal/model"
)

func TestFormatBacktestSummary(t *testing.T) {
	res := &backtest.Result{
		Symbol:        "NIFTY",
		Date:          time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Resolution:    model.FiveMinutes,
		Predictions:   4,
		DirectionHits: 3,
		SuccessRate:   75,
		ProfitLoss:    -2.5,
		StopReason:    backtest.StopEndOfData,
		Cycles: []model.Cycle{
			{Number: 1, Score: 60, Winner: &model.TrendlineResult{TrendType: model.Uptrend, PatternLabel: "1-4", Resolution: model.FiveMinutes}, Accuracy: make([]model.AccuracyRecord, 2)},
			{Number: 2, Score: 90, Winner: &model.TrendlineResult{TrendType: model.Downtrend, PatternLabel: "2-3", Resolution: model.FiveMinutes}, Accuracy: make([]model.AccuracyRecord, 2)},
			{Number: 3},
		},
	}
	msg := FormatBacktestSummary(res)
	for _, want := range []string{"NIFTY backtest", "2025-03-14", "Cycles: 3 (end_of_data)", "Success rate: 75.0%", "P/L: -2.50", "Best cycle #2: downtrend 2-3"} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}

	res.CapReached = true
	if !strings.Contains(FormatBacktestSummary(res), "cycle cap reached") {
		t.Error("cap warning missing")
	}
}

func TestFormatFundStatus(t *testing.T) {
	msg := FormatFundStatus(fund.State{
		Capital:     1000,
		RealizedPnL: 25,
		Symbols: map[string]*fund.SymbolStats{
			"NIFTY":     {Runs: 2, Trades: 5, Wins: 3, ProfitLoss: 30},
			"BANKNIFTY": {Runs: 1, ProfitLoss: -5},
		},
	})
	if !strings.Contains(msg, "Equity: 1025.00") {
		t.Errorf("missing equity:\n%s", msg)
	}
	if strings.Index(msg, "BANKNIFTY") > strings.Index(msg, "NIFTY:") {
		t.Error("symbols not sorted")
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls atomic.Int32
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 1); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 || !strings.Contains(gotBody, `"chat_id":"42"`) {
		t.Errorf("calls = %d body = %s", calls.Load(), gotBody)
	}
}

func TestTelegramNotifier_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 0); err == nil {
		t.Error("expected error")
	}
}

func TestDispatchUpdates(t *testing.T) {
	body := []byte(`{"ok":true,"result":[
		{"update_id":10,"message":{"text":" /status "}},
		{"update_id":11},
		{"update_id":12,"message":{"text":"/run"}}
	]}`)
	var got []string
	offset := dispatchUpdates(body, 0, func(text string) { got = append(got, text) })
	if offset != 13 {
		t.Errorf("offset = %d, want 13", offset)
	}
	if len(got) != 2 || got[0] != "/status" || got[1] != "/run" {
		t.Errorf("commands = %v", got)
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"line break", "aaaa\nbbbb\ncc", 10, []string{"aaaa\nbbbb", "cc"}},
		{"no break", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"multibyte", "ééé", 3, []string{"é", "é", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.text, tt.limit)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTelegramNotifier_APIErrorDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	err := n.Send(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v", err)
	}
}
