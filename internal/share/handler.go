package share

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
)

// Error messages returned to clients.
const (
	msgBadRequest = "잘못된 요청 형식입니다."
	msgEmpty      = "공유할 항목이 없습니다."
	msgTooMany    = "한 번에 최대 30개까지만 공유할 수 있습니다."
	msgMissingID  = "가이드북 ID가 필요합니다."
	msgNotFound   = "해당 가이드북을 찾을 수 없습니다."
	msgInternal   = "서버 내부 오류가 발생했습니다."
)

// CreateRequest is the body of a POST.
type CreateRequest struct {
	ContentIDs []int64 `json:"contentIds"`
}

// CreateResponse is the reply to a successful POST.
type CreateResponse struct {
	GuidebookID string `json:"guidebookId"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves guidebooks: POST creates one, GET ?id= fetches one.
type Handler struct {
	store   *Store
	logger  *log.Logger
	created func()
}

// NewHandler creates a handler backed by store. created, if not nil, runs
// after every guidebook is stored.
func NewHandler(store *Store, created func()) *Handler {
	return &Handler{store: store, logger: log.WithPrefix("share"), created: created}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.get(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgBadRequest})
		return
	}

	id, err := h.store.Create(req.ContentIDs)
	switch {
	case errors.Is(err, ErrEmpty):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgEmpty})
		return
	case errors.Is(err, ErrTooMany):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgTooMany})
		return
	case err != nil:
		h.logger.Error("Creating guidebook", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
		return
	}

	h.logger.Info("Guidebook created", "id", id, "items", len(req.ContentIDs))
	if h.created != nil {
		h.created()
	}
	writeJSON(w, http.StatusOK, CreateResponse{GuidebookID: id})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgMissingID})
		return
	}

	g, err := h.store.Get(id)
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: msgNotFound})
		return
	case err != nil:
		h.logger.Error("Reading guidebook", "id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
