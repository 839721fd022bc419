package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/agora-ai/agora/internal/events"
)

// SSEHandler streams debate events to connected clients over Server-Sent
// Events. Clients may narrow the stream to one debate with ?debate=<id>.
type SSEHandler struct {
	bus           *events.EventBus
	heartbeatFreq time.Duration
}

// NewSSEHandler creates an SSE handler attached to the event bus.
func NewSSEHandler(bus *events.EventBus) *SSEHandler {
	return &SSEHandler{
		bus:           bus,
		heartbeatFreq: 30 * time.Second,
	}
}

// SetHeartbeatFrequency sets the interval between keep-alive comments.
func (h *SSEHandler) SetHeartbeatFrequency(d time.Duration) {
	h.heartbeatFreq = d
}

// ServeHTTP implements http.Handler for SSE connections.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	debateFilter := r.URL.Query().Get("debate")

	eventCh := h.bus.Subscribe()
	defer h.bus.Unsubscribe(eventCh)

	h.sendEvent(w, flusher, "connected", map[string]string{"debate": debateFilter})

	heartbeat := time.NewTicker(h.heartbeatFreq)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			h.sendComment(w, flusher, "heartbeat")
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if debateFilter != "" && event.DebateID() != debateFilter {
				continue
			}
			h.sendEvent(w, flusher, event.EventType(), event)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}

func (h *SSEHandler) sendComment(w http.ResponseWriter, flusher http.Flusher, comment string) {
	fmt.Fprintf(w, ": %s\n\n", comment)
	flusher.Flush()
}
