package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"netwatch/internal/models"
)

const (
	eventsPushInterval = 60 * time.Second
	eventsWriteTimeout = 5 * time.Second
)

var eventsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// eventFrame is one WebSocket message: either a periodic status
// snapshot or a transition event.
type eventFrame struct {
	Kind       string             `json:"kind"` // "status" | "transition"
	Status     *statusResponse    `json:"status,omitempty"`
	Transition *models.Transition `json:"transition,omitempty"`
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveEventsConnection(conn)
}

func (s *Server) serveEventsConnection(conn *websocket.Conn) {
	defer conn.Close()

	// subscribe before the initial snapshot so a transition landing
	// between the two is not lost
	events, cancel := s.recorder.Subscribe()
	defer cancel()

	snapshot := s.statusSnapshot()
	if err := writeEventFrame(conn, eventFrame{Kind: "status", Status: &snapshot}); err != nil {
		return
	}

	ticker := time.NewTicker(eventsPushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEventFrame(conn, eventFrame{Kind: "transition", Transition: &event}); err != nil {
				return
			}
		case <-ticker.C:
			snapshot := s.statusSnapshot()
			if err := writeEventFrame(conn, eventFrame{Kind: "status", Status: &snapshot}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeEventFrame(conn *websocket.Conn, frame eventFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
	return conn.WriteJSON(frame)
}
