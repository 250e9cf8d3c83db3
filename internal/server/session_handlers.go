package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/talentecho/talentecho/internal/app"
	"github.com/talentecho/talentecho/internal/session"
	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/media"
)

// statusInterval is the push cadence of the live status socket.
const statusInterval = 250 * time.Millisecond

// Browser capture defaults when the audio socket omits query parameters.
const (
	defaultIngestRate     = 16000
	defaultIngestChannels = 1
)

type createSessionRequest struct {
	Type        interview.SessionType `json:"type"`
	Questions   []string              `json:"questions"`
	Personality interview.Personality `json:"personality"`
	Difficulty  interview.Difficulty  `json:"difficulty"`
	OwnerKey    string                `json:"ownerKey"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid session request: "+err.Error())
		return
	}

	info, err := s.sessions.Create(interview.Settings{
		Type:        req.Type,
		Questions:   req.Questions,
		Personality: req.Personality,
		Difficulty:  req.Difficulty,
		OwnerKey:    req.OwnerKey,
	})
	switch {
	case errors.Is(err, app.ErrSessionActive):
		s.writeError(w, http.StatusConflict, "an interview is already in progress")
		return
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	err := s.sessions.Start()
	switch {
	case errors.Is(err, app.ErrNoActiveSession):
		s.writeError(w, http.StatusNotFound, "no session has been created")
		return
	case errors.Is(err, app.ErrSessionActive):
		s.writeError(w, http.StatusConflict, "the session is already running")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	rep, err := s.sessions.End(r.Context())
	switch {
	case errors.Is(err, app.ErrNoActiveSession):
		s.writeError(w, http.StatusNotFound, "no active session")
		return
	case errors.Is(err, session.ErrNoResults):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

type statusResponse struct {
	Session  app.SessionInfo  `json:"session"`
	Snapshot session.Snapshot `json:"snapshot"`
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	snap, info, err := s.sessions.Status()
	if errors.Is(err, app.ErrNoActiveSession) {
		s.writeError(w, http.StatusNotFound, "no active session")
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Session: info, Snapshot: snap})
}

// handleSessionAudio is the duplex audio socket. Binary frames from the
// client are raw int16 LE PCM pushed into the session's ingest pipe; binary
// frames to the client are interviewer speech. Fallback clips go out as a
// JSON text frame so the browser can hand the text to its own synthesis.
func (s *Server) handleSessionAudio(w http.ResponseWriter, r *http.Request) {
	pipe, err := s.sessions.Audio()
	if errors.Is(err, app.ErrNoActiveSession) {
		s.writeError(w, http.StatusNotFound, "no active session")
		return
	}
	playback, err := s.sessions.Playback()
	if err != nil {
		s.writeError(w, http.StatusNotFound, "no active session")
		return
	}

	rate := queryInt(r, "rate", defaultIngestRate)
	channels := queryInt(r, "channels", defaultIngestChannels)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("audio socket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	// Outbound: interviewer speech.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case buf, ok := <-playback:
				if !ok {
					return
				}
				if buf.Fallback {
					msg := map[string]string{"type": "speech_text", "text": buf.Text}
					if err := wsjson.Write(ctx, conn, msg); err != nil {
						return
					}
					continue
				}
				if err := conn.Write(ctx, websocket.MessageBinary, buf.PCM); err != nil {
					return
				}
			}
		}
	}()

	// Inbound: captured answer audio. Closing the socket releases the pipe.
	defer pipe.Release()
	start := time.Now()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageBinary || len(data) == 0 {
			continue
		}
		pipe.Push(media.AudioFrame{
			Data:       data,
			SampleRate: rate,
			Channels:   channels,
			Timestamp:  time.Since(start),
		})
	}
}

// handleSessionLive pushes session snapshots as JSON on a fixed interval
// until the client disconnects or the session ends.
func (s *Server) handleSessionLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("live socket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		snap, info, err := s.sessions.Status()
		if errors.Is(err, app.ErrNoActiveSession) {
			_ = wsjson.Write(ctx, conn, map[string]string{"type": "session_closed"})
			conn.Close(websocket.StatusNormalClosure, "session ended")
			return
		}
		if err := wsjson.Write(ctx, conn, statusResponse{Session: info, Snapshot: snap}); err != nil {
			return
		}
		if snap.Phase == session.PhaseCompleted {
			conn.Close(websocket.StatusNormalClosure, "interview complete")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// queryInt reads an integer query parameter, falling back to def on absence
// or garbage.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
