package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"incubator-portal/internal/applications"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Service is the operation surface the handlers call.
type Service interface {
	Submit(ctx context.Context, fields models.SubmissionFields) (*models.Application, error)
	ListAll(ctx context.Context, token string) ([]*models.Application, error)
	GetByID(ctx context.Context, token, id string) (*models.Application, error)
	Admit(ctx context.Context, token string, op applications.Operation) (models.Actor, error)
	SetStatusAs(ctx context.Context, actor models.Actor, id, status string) (*models.Application, error)
	Search(ctx context.Context, token string, q models.SearchQuery) (*applications.SearchResult, error)
	Logout(ctx context.Context, token string) error
}

type statusRequest struct {
	Status *string `json:"status"`
}

type handlers struct {
	svc Service
}

func (h *handlers) apply(w http.ResponseWriter, r *http.Request) {
	var fields models.SubmissionFields
	if err := decodeBody(r, &fields); err != nil {
		writeError(w, r, err)
		return
	}

	app, err := h.svc.Submit(r.Context(), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListAll(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.GetByID(r.Context(), bearerToken(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *handlers) setStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := h.svc.Admit(r.Context(), bearerToken(r), applications.OpSetStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status := ""
	if req.Status != nil {
		status = *req.Status
	}

	app, err := h.svc.SetStatusAs(r.Context(), actor, mux.Vars(r)["id"], status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := models.SearchQuery{
		Text:   strings.TrimSpace(params.Get("q")),
		Status: models.Status(params.Get("status")),
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, r, apperrors.NewRequestValidationError("limit"))
			return
		}
		q.Limit = limit
	}

	result, err := h.svc.Search(r.Context(), bearerToken(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// bearerToken returns the credential from "Authorization: Bearer <token>", or "".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		verr := apperrors.NewRequestValidationError()
		verr.Details = "request body must be a JSON object"
		return verr
	}
	return nil
}
