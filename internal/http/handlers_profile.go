package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fluxo/internal/log"
	"fluxo/internal/profile"
)

const opProfile = "profile"

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := s.deps.Profiles.GetProfile(r.Context(), uid)
	if err != nil {
		writeError(w, r, opProfile, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req avatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, opProfile, err)
		return
	}
	p, err := s.deps.Profiles.SetAvatar(r.Context(), uid, req.AvatarURL)
	if err != nil {
		writeError(w, r, opProfile, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleClearAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if _, err := s.deps.Profiles.ClearAvatar(r.Context(), uid); err != nil {
		writeError(w, r, opProfile, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAvatarEvents streams the user's avatar changes as server-sent events,
// starting with the current value.
func (s *Server) handleAvatarEvents(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentProfile)

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	updates, cancel := s.deps.Profiles.Broker().Subscribe(uid)
	defer cancel()

	current, err := s.deps.Profiles.GetProfile(ctx, uid)
	if err != nil {
		writeError(w, r, opProfile, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	initial := profile.AvatarUpdate{UserID: uid, AvatarURL: current.AvatarURL, UpdatedAt: time.Now().UTC()}
	if err := writeEvent(w, rc, "avatar", initial); err != nil {
		logger.DebugContext(ctx, "Avatar stream closed", log.FieldError, err)
		return
	}

	heartbeat := time.NewTicker(s.deps.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u, open := <-updates:
			if !open {
				return
			}
			if err := writeEvent(w, rc, "avatar", u); err != nil {
				logger.DebugContext(ctx, "Avatar stream closed", log.FieldError, err)
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := rc.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	return nil
}
