package api

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/lifecycle"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

// RequestsHandler handles pickup request endpoints.
type RequestsHandler struct {
	Catalog   *catalog.Catalog
	Ledger    *ledger.Ledger
	Lifecycle *lifecycle.Coordinator
	Log       logrus.FieldLogger
}

func (h *RequestsHandler) list(w http.ResponseWriter, r *http.Request, filter ledger.Filter) {
	filter.Status = r.URL.Query().Get("status")

	requests, err := store.Collect(h.Ledger.List(r.Context(), filter))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// ListByFood handles GET /api/foods/{id}/requests. Only the donor of the
// food item sees its requests.
func (h *RequestsHandler) ListByFood(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !f.Donor.Matches(caller(r).Email) {
		writeError(w, h.Log, fmt.Errorf("food %s belongs to another donor: %w", id, model.ErrForbidden))
		return
	}

	h.list(w, r, ledger.Filter{FoodID: id})
}

// Inbox handles GET /api/requests: the requests addressed to the caller
// as donor.
func (h *RequestsHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ledger.Filter{DonorEmail: caller(r).Email})
}

// Create handles POST /api/foods/{id}/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in ledger.RequestInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}

	req, err := h.Ledger.Create(r.Context(), r.PathValue("id"), caller(r), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"food_id":    req.FoodID,
		"requester":  req.Requester.Email,
	}).Info("pickup requested")
	jsonResponse(w, http.StatusCreated, req)
}

// Get handles GET /api/requests/{id}. The donor and the requester may
// read a request.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	email := caller(r).Email
	if !model.SameEmail(req.DonorEmail, email) && !req.Requester.Matches(email) {
		writeError(w, h.Log, fmt.Errorf("request %s: %w", id, model.ErrForbidden))
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// UpdateStatus handles PATCH /api/requests/{id}. It records the decision
// in the ledger only; the food item is left alone.
func (h *RequestsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}

	next, ok := model.ParseRequestStatus(body.Status)
	if !ok {
		writeError(w, h.Log, model.Invalid("status", fmt.Sprintf("unknown request status %q", body.Status)))
		return
	}

	req, err := h.Ledger.UpdateStatus(r.Context(), r.PathValue("id"), caller(r).Email, next)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// Accept handles POST /api/requests/{id}/accept.
func (h *RequestsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	req, err := h.Lifecycle.Accept(r.Context(), r.PathValue("id"), caller(r).Email)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.WithFields(logrus.Fields{"request_id": req.ID, "food_id": req.FoodID}).Info("request accepted")
	jsonResponse(w, http.StatusOK, req)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	req, err := h.Lifecycle.Reject(r.Context(), r.PathValue("id"), caller(r).Email)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.WithFields(logrus.Fields{"request_id": req.ID, "food_id": req.FoodID}).Info("request rejected")
	jsonResponse(w, http.StatusOK, req)
}
