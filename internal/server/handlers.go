package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/treepack/pkg/buildinfo"
	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/errors"
	"github.com/matzehuels/treepack/pkg/observability"
	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/render/sink"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/session"
	"github.com/matzehuels/treepack/pkg/tree"
)

// LayoutOptions are the layout settings of a request.
type LayoutOptions struct {
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	MaxDepth      int     `json:"max_depth,omitempty"`
	MaxNodes      int     `json:"max_nodes,omitempty"`
	ColorEncoding string  `json:"color_encoding,omitempty"`
}

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Tree      json.RawMessage `json:"tree"`
	SessionID string          `json:"session_id,omitempty"`
	Reset     bool            `json:"reset,omitempty"`
	Options   LayoutOptions   `json:"options"`
}

// LayoutResponse is the body returned by POST /v1/layout.
type LayoutResponse struct {
	SessionID string       `json:"session_id"`
	Passes    int          `json:"passes"`
	Cached    bool         `json:"cached"`
	Layout    scene.Layout `json:"layout"`
}

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	Layout   json.RawMessage `json:"layout"`
	Formats  []string        `json:"formats,omitempty"`
	Changes  []tree.Change   `json:"changes,omitempty"`
	Selected string          `json:"selected,omitempty"`
	NoLegend bool            `json:"no_legend,omitempty"`
	Scale    float64         `json:"scale,omitempty"`
}

// SessionResponse describes a stored session.
type SessionResponse struct {
	ID        string          `json:"id"`
	Source    string          `json:"source,omitempty"`
	Passes    int             `json:"passes"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Context   history.Summary `json:"context"`
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Tree) == 0 || string(req.Tree) == "null" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "tree is required"))
		return
	}
	root, err := tree.Unmarshal(req.Tree)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid tree"))
		return
	}

	id := req.SessionID
	if id == "" {
		id = session.NewID()
	} else if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, err)
		return
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	ctx := r.Context()
	sess, err := s.loadSession(r, id, req.SessionID != "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	prev := sess.Context
	if req.Reset {
		prev = history.Empty()
	}

	opts := pipeline.Options{
		Width:    req.Options.Width,
		Height:   req.Options.Height,
		MaxDepth: req.Options.MaxDepth,
		MaxNodes: req.Options.MaxNodes,
		Encoding: req.Options.ColorEncoding,
		Logger:   s.logger,
	}
	l, next, hit, err := s.runner.LayoutWithCacheInfo(ctx, root, prev, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess.Update(next)
	if err := s.runner.SaveSession(ctx, sess); err != nil {
		s.writeError(w, fmt.Errorf("save session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, LayoutResponse{
		SessionID: sess.ID,
		Passes:    sess.Passes,
		Cached:    hit,
		Layout:    l,
	})
}

// loadSession returns the stored session, or a new one when the client did
// not name one. A named session that does not exist is an error so that
// clients notice expired contexts.
func (s *Server) loadSession(r *http.Request, id string, named bool) (*session.Session, error) {
	if !named {
		return session.NewWithID(id, s.ttl), nil
	}
	sess, found, err := s.runner.LoadSession(r.Context(), id, s.ttl)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return sess, nil
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Layout) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "layout is required"))
		return
	}
	l, err := scene.UnmarshalLayout(req.Layout)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout"))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" && len(req.Formats) > 0 {
		format = req.Formats[0]
	}
	if format == "" {
		format = sink.FormatSVG
	}

	opts := pipeline.Options{
		Formats:  []string{format},
		Changes:  req.Changes,
		Selected: req.Selected,
		NoLegend: req.NoLegend,
		Scale:    req.Scale,
		Logger:   s.logger,
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), l, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", sink.ContentType(format))
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.runner.Sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess == nil {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		ID:        sess.ID,
		Source:    sess.Source,
		Passes:    sess.Passes,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		ExpiresAt: sess.ExpiresAt,
		Context:   sess.Context.Summarize(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, err)
		return
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.runner.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	observability.Session().OnSessionDelete(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsInvalid(err):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		status = http.StatusNotImplemented
	}

	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		s.logger.Error("request failed", "error", err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
