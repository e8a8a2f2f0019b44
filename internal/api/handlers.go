package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/timeline"
)

type entriesResponse struct {
	Phase   string                     `json:"phase"`
	Chapter string                     `json:"chapter"`
	Line    int                        `json:"line"`
	Entries []internal.TranscriptEntry `json:"entries"`
}

func snapshot(st *internal.State, entries []internal.TranscriptEntry) entriesResponse {
	chapter, line := st.Session.Position()
	if entries == nil {
		entries = []internal.TranscriptEntry{}
	}
	return entriesResponse{
		Phase:   st.Player.Phase().String(),
		Chapter: chapter,
		Line:    line,
		Entries: entries,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "novel-session",
	})
}

func (s *Server) transcript(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		Title string `json:"title"`
		entriesResponse
	}
	_ = s.rt.Do(func(st *internal.State) error {
		resp.Title = st.Engine.Title()
		resp.entriesResponse = snapshot(st, st.Session.Entries())
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	var resp entriesResponse
	_ = s.rt.Do(func(st *internal.State) error {
		resp = snapshot(st, st.Player.Advance())
		return nil
	})
	s.save()
	writeJSON(w, http.StatusOK, resp)
}

type chooseRequest struct {
	EntryID string `json:"entry_id"`
	Option  int    `json:"option"`
}

type chooseResponse struct {
	Echo internal.TranscriptEntry `json:"echo"`
	entriesResponse
}

func (s *Server) choose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var resp chooseResponse
	var cont *internal.Continuation
	err := s.rt.Do(func(st *internal.State) error {
		echo, c, err := st.Player.Choose(req.EntryID, req.Option)
		if err != nil {
			return err
		}
		resp.Echo, cont = echo, c
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	// the choice is already applied; a dropped request only skips pacing
	select {
	case <-cont.C:
	case <-r.Context().Done():
		cont.Cancel()
		s.save()
		return
	}

	_ = s.rt.Do(func(st *internal.State) error {
		resp.entriesResponse = snapshot(st, st.Player.Advance())
		return nil
	})
	s.save()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) delivered(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var fired, found bool
	_ = s.rt.Do(func(st *internal.State) error {
		_, found = st.Session.Entry(id)
		fired = st.Player.MarkDelivered(id)
		return nil
	})
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("entry %q not found", id))
		return
	}
	if fired {
		s.save()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"fired": fired})
}

type cursorRequest struct {
	Chapter string `json:"chapter"`
	Line    int    `json:"line"`
}

func (s *Server) cursor(w http.ResponseWriter, r *http.Request) {
	var req cursorRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var resp entriesResponse
	err := s.rt.Do(func(st *internal.State) error {
		if st.Engine.Chapter(req.Chapter).Name == "" {
			return fmt.Errorf("chapter %q not found", req.Chapter)
		}
		st.Player.SetCursor(req.Chapter, req.Line)
		resp = snapshot(st, nil)
		return nil
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.save()
	writeJSON(w, http.StatusOK, resp)
}

type jumpRequest struct {
	Chapter string `json:"chapter"`
}

func (s *Server) jump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var resp entriesResponse
	err := s.rt.Do(func(st *internal.State) error {
		entries, err := st.Player.JumpTo(req.Chapter)
		if err != nil {
			return err
		}
		resp = snapshot(st, entries)
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.save()
	writeJSON(w, http.StatusOK, resp)
}

type timelineResponse struct {
	*timeline.Graph
	ContentSize timeline.Size `json:"content_size"`
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	var g *timeline.Graph
	_ = s.rt.Do(func(st *internal.State) error {
		g = timeline.Layout(st.Engine.Novel(), s.measurer, s.layout)
		return nil
	})
	writeJSON(w, http.StatusOK, timelineResponse{Graph: g, ContentSize: g.ContentSize()})
}

type syncRequest struct {
	Identity string `json:"identity"`
}

func (s *Server) syncNow(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no remote backend configured"))
		return
	}
	var req syncRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	if req.Identity == "" {
		req.Identity = s.rt.Config().Identity
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, errors.New("identity is required"))
		return
	}

	outcome, err := s.sync.Reconcile(r.Context(), req.Identity)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error(), "outcome": outcome})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) collections(w http.ResponseWriter, r *http.Request) {
	var list []internal.Collection
	_ = s.rt.Do(func(st *internal.State) error {
		list = append([]internal.Collection{}, st.Engine.Novel().Collections...)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"collections": list})
}
