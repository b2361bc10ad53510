package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/repository"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into dst. An empty body leaves dst
// at its zero value.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &contract.StudioError{Code: contract.ErrInvalidRequest, Message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.Snapshot())
}

func (s *Server) outline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.Outline())
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req contract.GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.studio.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	req := contract.ExpandRequest{Enter: true}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.studio.Expand(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action   string `json:"action"`
		ParentID string `json:"parent_id"`
		Lens     string `json:"lens"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	action, err := contract.ParseNavigateAction(body.Action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.studio.Navigate(r.Context(), contract.NavigateRequest{
		Action:   action,
		ParentID: body.ParentID,
		Lens:     body.Lens,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) retryVisual(w http.ResponseWriter, r *http.Request) {
	resp, err := s.studio.RetryVisual(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// history answers /api/history (whole session) and /api/history/{id}.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	records := s.studio.History(mux.Vars(r)["id"])
	if records == nil {
		records = []contract.RecordView{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) artifact(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		s.writeError(w, r, repository.ErrNotFound)
		return
	}
	blob, err := s.artifacts.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", blob.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}
