package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/http/middleware"
	"github.com/hubooks/reading-service/internal/http/response"
	"github.com/hubooks/reading-service/internal/observability"
	"github.com/hubooks/reading-service/internal/repository"
	"github.com/hubooks/reading-service/internal/service"
)

type ReaderHandler struct {
	readers service.ReaderServiceInterface
}

func NewReaderHandler(readers service.ReaderServiceInterface) *ReaderHandler {
	return &ReaderHandler{readers: readers}
}

type readerDetail struct {
	domain.ReaderSummary
	CreatedAt time.Time `json:"created_at"`
}

type readerPage struct {
	Items      []domain.ReaderSummary `json:"items"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	Total      int64                  `json:"total"`
	TotalPages int                    `json:"total_pages"`
}

type updateReaderRequest struct {
	Name         *string `json:"name"`
	TargetCount  *int    `json:"target_count"`
	CurrentRound *int    `json:"current_round"`
	PIN          *string `json:"pin"`
}

func (h *ReaderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	res, err := h.readers.List(r.Context(), page)
	if err != nil {
		slog.ErrorContext(r.Context(), "list readers failed", "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	out := readerPage{
		Items:      make([]domain.ReaderSummary, 0, len(res.Items)),
		Page:       res.Page,
		PageSize:   res.PageSize,
		Total:      res.Total,
		TotalPages: res.TotalPages,
	}
	for i := range res.Items {
		out.Items = append(out.Items, res.Items[i].Summary())
	}
	response.JSON(w, r, http.StatusOK, out)
}

func (h *ReaderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := readerIDParam(w, r)
	if !ok {
		return
	}
	reader, err := h.readers.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, readerDetail{ReaderSummary: reader.Summary(), CreatedAt: reader.CreatedAt})
}

func (h *ReaderHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, ok := readerIDParam(w, r)
	if !ok {
		return
	}
	var req updateReaderRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	reader, err := h.readers.Update(r.Context(), identity.ReaderID, id, service.UpdateReaderInput{
		Name:         req.Name,
		TargetCount:  req.TargetCount,
		CurrentRound: req.CurrentRound,
		PIN:          req.PIN,
	})
	if err != nil {
		observability.Audit(r, "reader.update", "outcome", "rejected", "reader_id", id, "reason", err.Error())
		h.writeError(w, r, err)
		return
	}
	observability.Audit(r, "reader.update", "outcome", "success", "reader_id", id, "pin_changed", req.PIN != nil)
	response.JSON(w, r, http.StatusOK, readerDetail{ReaderSummary: reader.Summary(), CreatedAt: reader.CreatedAt})
}

func (h *ReaderHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "not allowed to modify another reader", nil)
	case errors.Is(err, service.ErrReaderNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "reader not found", nil)
	case errors.Is(err, service.ErrReaderNameTaken):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "reader name already taken", nil)
	default:
		slog.ErrorContext(r.Context(), "reader request failed", "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

func readerIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid reader id", nil)
		return 0, false
	}
	return uint(id), true
}

var errInvalidPaging = errors.New("page and page_size must be positive integers")

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	q := r.URL.Query()
	var req repository.PageRequest
	for key, dst := range map[string]*int{"page": &req.Page, "page_size": &req.PageSize} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errInvalidPaging
		}
		*dst = v
	}
	return req, nil
}
