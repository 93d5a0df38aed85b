package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atlascodesai/snake-ai-arena/internal/playback"
	"github.com/atlascodesai/snake-ai-arena/internal/sandbox"
	"github.com/atlascodesai/snake-ai-arena/internal/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The UI is served from arbitrary dev origins; the endpoint carries no
	// credentials and only streams game snapshots.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleLive upgrades to a websocket, compiles the algorithm from the first
// client message, and streams playback snapshots until the game ends or the
// client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req LiveRequest
	if err := conn.ReadJSON(&req); err != nil {
		writeLiveError(conn, ErrTypeValidation, "invalid live request", err)
		return
	}

	decide, err := sandbox.Compile(req.SourceCode)
	if err != nil {
		writeLiveError(conn, ErrTypeCompilation, "algorithm does not compile", err)
		return
	}

	tick := time.Duration(req.TickMs) * time.Millisecond
	if tick <= 0 {
		tick = time.Duration(s.cfg.Playback.TickMs) * time.Millisecond
	}

	simulation := sim.New(decide, req.Seed, req.MaxFrames)
	controller := playback.New(simulation, func(snap sim.Snapshot) {
		// Write failures mean the client went away; the read goroutine
		// notices the closed socket and stops the controller.
		_ = conn.WriteJSON(snap)
	})

	// Stop playback when the client closes the socket.
	go func() {
		defer controller.Stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	controller.Run(r.Context(), tick)
}

func writeLiveError(conn *websocket.Conn, errType, message string, cause error) {
	payload := EngineError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if cause != nil {
		payload.Context = map[string]interface{}{"cause": cause.Error()}
	}
	_ = conn.WriteJSON(payload)
}
