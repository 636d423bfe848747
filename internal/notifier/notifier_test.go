package notifier

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBuildReport(t *testing.T) {
	msg := FormatBuildReport(&BuildSummary{
		RunID:       "run-1",
		OutputDir:   "data",
		Instruments: 11,
		Days:        2514,
		Columns:     11,
		FirstDate:   "2015-11-09",
		LastDate:    "2025-11-06",
		Fallbacks:   []string{"DBC", "VNQ"},
	})
	assert.Contains(t, msg, "run-1")
	assert.Contains(t, msg, "2514 days × 11 tickers")
	assert.Contains(t, msg, "From 2015-11-09 to 2025-11-06")
	assert.Contains(t, msg, "Unresolved names: DBC, VNQ")

	empty := FormatBuildReport(&BuildSummary{RunID: "run-2"})
	assert.NotContains(t, empty, "From")
	assert.NotContains(t, empty, "Unresolved")
}

func TestFormatBuildFailure(t *testing.T) {
	assert.Contains(t, FormatBuildFailure(errors.New("boom")), "boom")

	msg := FormatBuildFailure(errors.New(`Get "http://x/quoteSummary/AGG?crumb=c&modules=price": body: <html>`))
	assert.Contains(t, msg, "crumb=c&amp;modules=price")
	assert.Contains(t, msg, "&lt;html&gt;")
	assert.NotContains(t, msg, "<html>")
	assert.True(t, strings.HasPrefix(msg, "❌ <b>Benchmark build failed</b>"))
}

func TestFormatBuildReport_Escapes(t *testing.T) {
	msg := FormatBuildReport(&BuildSummary{
		RunID:     "run-3",
		OutputDir: "out/<a&b>",
		Fallbacks: []string{"M&M"},
	})
	assert.Contains(t, msg, "Output: out/&lt;a&amp;b&gt;")
	assert.Contains(t, msg, "Unresolved names: M&amp;M")
	assert.NotContains(t, msg, "<a&b>")
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.APIURL = srv.URL
	require.NoError(t, tn.Send("hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("bad", "42", "")
	tn.APIURL = srv.URL
	err := tn.Send("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
