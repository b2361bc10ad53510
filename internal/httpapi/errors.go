package httpapi

import (
	"errors"
	"net/http"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/generation"
	"github.com/alexanderramin/bananadeck/internal/navigator"
	"github.com/alexanderramin/bananadeck/internal/repository"
	"github.com/alexanderramin/bananadeck/internal/service"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Phase   string `json:"phase,omitempty"`
}

// classify maps an intent error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	var studioErr *contract.StudioError
	var targetErr *generation.InvalidExpansionTargetError
	var structureErr *generation.StructureGenerationError
	var expansionErr *generation.ExpansionGenerationError

	switch {
	case errors.As(err, &studioErr):
		switch studioErr.Code {
		case contract.ErrInvalidRequest:
			return http.StatusBadRequest, string(studioErr.Code)
		case contract.ErrSlideNotFound:
			return http.StatusNotFound, string(studioErr.Code)
		case contract.ErrNotRetryable:
			return http.StatusConflict, string(studioErr.Code)
		default:
			return http.StatusInternalServerError, string(studioErr.Code)
		}
	case errors.Is(err, generation.ErrNoInputs):
		return http.StatusBadRequest, "NO_INPUTS"
	case errors.As(err, &targetErr):
		return http.StatusUnprocessableEntity, "INVALID_EXPANSION_TARGET"
	case errors.As(err, &structureErr):
		return http.StatusBadGateway, "STRUCTURE_GENERATION_FAILED"
	case errors.As(err, &expansionErr):
		return http.StatusBadGateway, "EXPANSION_GENERATION_FAILED"
	case errors.Is(err, navigator.ErrEmptyCollection),
		errors.Is(err, navigator.ErrWalkthroughInactive),
		errors.Is(err, navigator.ErrInvalidView):
		return http.StatusConflict, "INVALID_NAVIGATION"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrClosed):
		return http.StatusServiceUnavailable, "CLOSED"
	default:
		return http.StatusInternalServerError, string(contract.ErrInternalError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "http_request_failed",
			"path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    code,
		Message: err.Error(),
		Phase:   generation.PhaseOf(err),
	}})
}
