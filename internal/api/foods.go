package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/imaging"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

// FoodsHandler handles food listing endpoints.
type FoodsHandler struct {
	Catalog *catalog.Catalog
	Log     logrus.FieldLogger
}

type createFoodRequest struct {
	Name           string `json:"name"`
	ImageURL       string `json:"image_url"`
	ImageData      string `json:"image_data"`
	Quantity       string `json:"quantity"`
	Category       string `json:"category"`
	PickupLocation string `json:"pickup_location"`
	ExpireDate     string `json:"expire_date"`
	Notes          string `json:"notes"`
}

type updateFoodRequest struct {
	Name           *string `json:"name"`
	ImageURL       *string `json:"image_url"`
	ImageData      *string `json:"image_data"`
	Quantity       *string `json:"quantity"`
	Category       *string `json:"category"`
	PickupLocation *string `json:"pickup_location"`
	ExpireDate     *string `json:"expire_date"`
	Notes          *string `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func decodeImage(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	data, err := imaging.DecodeDataURL(s)
	if err != nil {
		return nil, model.Invalid("image_data", err.Error())
	}
	return data, nil
}

// List handles GET /api/foods.
func (h *FoodsHandler) List(w http.ResponseWriter, r *http.Request) {
	foods, err := store.Collect(h.Catalog.List(r.Context(), catalog.Filter{
		Status:     r.URL.Query().Get("status"),
		DonorEmail: r.URL.Query().Get("donor"),
	}))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if foods == nil {
		foods = []model.Food{}
	}
	jsonResponse(w, http.StatusOK, foods)
}

// Featured handles GET /api/foods/featured.
func (h *FoodsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, h.Log, model.Invalid("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}

	foods, err := h.Catalog.Featured(r.Context(), limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if foods == nil {
		foods = []model.Food{}
	}
	jsonResponse(w, http.StatusOK, foods)
}

// Create handles POST /api/foods.
func (h *FoodsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFoodRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}

	data, err := decodeImage(req.ImageData)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	f, err := h.Catalog.Create(r.Context(), caller(r), catalog.FoodInput{
		Name:           req.Name,
		ImageURL:       req.ImageURL,
		ImageData:      data,
		Quantity:       req.Quantity,
		Category:       req.Category,
		PickupLocation: req.PickupLocation,
		ExpireDate:     req.ExpireDate,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.WithFields(logrus.Fields{"food_id": f.ID, "donor": f.Donor.Email}).Info("food listed")
	jsonResponse(w, http.StatusCreated, f)
}

// Get handles GET /api/foods/{id}.
func (h *FoodsHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.Catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, f)
}

// Image handles GET /api/foods/{id}/image.
func (h *FoodsHandler) Image(w http.ResponseWriter, r *http.Request) {
	data, mime, err := h.Catalog.Image(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Update handles PUT /api/foods/{id}.
func (h *FoodsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateFoodRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}

	patch := catalog.FoodPatch{
		Name:           req.Name,
		ImageURL:       req.ImageURL,
		Quantity:       req.Quantity,
		Category:       req.Category,
		PickupLocation: req.PickupLocation,
		ExpireDate:     req.ExpireDate,
		Notes:          req.Notes,
	}
	if req.ImageData != nil {
		data, err := decodeImage(*req.ImageData)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		patch.ImageData = data
	}

	f, err := h.Catalog.Update(r.Context(), r.PathValue("id"), caller(r).Email, patch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, f)
}

// Delete handles DELETE /api/foods/{id}.
func (h *FoodsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Catalog.Remove(r.Context(), id, caller(r).Email); err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.WithField("food_id", id).Info("food removed")
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus handles PATCH /api/foods/{id}/status. Only the donor may
// change the status of a listing over the API.
func (h *FoodsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}

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

	f, err = h.Catalog.SetStatus(r.Context(), id, model.FoodStatus(req.Status))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, f)
}
