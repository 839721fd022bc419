package api

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ai/agora/internal/events"
)

// sseStream starts the single reader goroutine for a connection. All waits
// on that connection must consume from the returned channel; a second reader
// on the same body would race it for lines.
func sseStream(body io.Reader) <-chan string {
	lines := make(chan string, 64)
	reader := bufio.NewReader(body)
	go func() {
		defer close(lines)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			lines <- strings.TrimRight(line, "\n")
		}
	}()
	return lines
}

func waitForLine(t *testing.T, lines <-chan string, want string, timeout time.Duration) string {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before %q", want)
			}
			if strings.Contains(line, want) {
				return line
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestSSEHandler_StreamsEvents(t *testing.T) {
	bus := events.New(16)
	defer bus.Close()

	handler := NewSSEHandler(bus)
	handler.SetHeartbeatFrequency(time.Hour)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := sseStream(resp.Body)
	waitForLine(t, lines, "event: connected", 2*time.Second)

	// Give the handler time to subscribe before publishing
	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.NewTurnAppendedEvent("deb-1", "for", "argument", "an argument", 1))

	waitForLine(t, lines, "event: turn_appended", 2*time.Second)
	line := waitForLine(t, lines, "data:", 2*time.Second)
	assert.Contains(t, line, `"debate_id":"deb-1"`)
	assert.Contains(t, line, `"an argument"`)
}

func TestSSEHandler_FiltersByDebate(t *testing.T) {
	bus := events.New(16)
	defer bus.Close()

	handler := NewSSEHandler(bus)
	handler.SetHeartbeatFrequency(time.Hour)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?debate=deb-2")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	lines := sseStream(resp.Body)
	waitForLine(t, lines, "event: connected", 2*time.Second)

	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.NewTurnAppendedEvent("deb-1", "for", "argument", "filtered out", 1))
	bus.Publish(events.NewTurnAppendedEvent("deb-2", "for", "argument", "kept", 1))

	line := waitForLine(t, lines, `"debate_id"`, 2*time.Second)
	assert.Contains(t, line, `"deb-2"`)
	assert.NotContains(t, line, "filtered out")
}
