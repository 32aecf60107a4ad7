package remote

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/plateshare/plateshare/internal/imaging"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

// foodBody is the create/update payload of /api/foods.
type foodBody struct {
	Name           string `json:"name"`
	ImageURL       string `json:"image_url,omitempty"`
	ImageData      string `json:"image_data,omitempty"`
	Quantity       string `json:"quantity"`
	Category       string `json:"category"`
	PickupLocation string `json:"pickup_location"`
	ExpireDate     string `json:"expire_date"`
	Notes          string `json:"notes"`
}

func newFoodBody(f *model.Food) foodBody {
	b := foodBody{
		Name:           f.Name,
		Quantity:       f.Quantity,
		Category:       f.Category,
		PickupLocation: f.PickupLocation,
		ExpireDate:     f.ExpireDate,
		Notes:          f.Notes,
	}
	switch {
	case len(f.Image) > 0:
		b.ImageData = imaging.EncodeDataURL(f.ImageMIME, f.Image)
	case !f.HasInlineImage():
		b.ImageURL = f.ImageURL
	}
	return b
}

func foodPath(id string) string {
	return "/api/foods/" + url.PathEscape(id)
}

// InsertFood creates a listing as the client's identity. The server
// assigns id, status, donor and timestamps, which are copied back into f.
func (c *Client) InsertFood(ctx context.Context, f *model.Food) error {
	var out model.Food
	if err := c.call(ctx, http.MethodPost, "/api/foods", newFoodBody(f), &out); err != nil {
		return fmt.Errorf("creating food: %w", err)
	}
	*f = out
	return nil
}

func (c *Client) GetFood(ctx context.Context, id string) (*model.Food, error) {
	var out model.Food
	if err := c.call(ctx, http.MethodGet, foodPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("getting food %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) GetFoodImage(ctx context.Context, id string) ([]byte, string, error) {
	resp, err := c.send(ctx, http.MethodGet, foodPath(id)+"/image", nil)
	if err != nil {
		return nil, "", fmt.Errorf("getting food image %s: %w", id, err)
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// ListFoods fetches the listing when iterated. Each iteration fetches again.
func (c *Client) ListFoods(ctx context.Context, filter store.FoodFilter) iter.Seq2[model.Food, error] {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.DonorEmail != "" {
		q.Set("donor", filter.DonorEmail)
	}
	path := "/api/foods"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return fetchSeq[model.Food](ctx, c, path, "foods")
}

// UpdateFood sends the editable fields of f. Status and donor are ignored
// by the server.
func (c *Client) UpdateFood(ctx context.Context, f *model.Food) error {
	var out model.Food
	if err := c.call(ctx, http.MethodPut, foodPath(f.ID), newFoodBody(f), &out); err != nil {
		return fmt.Errorf("updating food %s: %w", f.ID, err)
	}
	*f = out
	return nil
}

func (c *Client) SetFoodStatus(ctx context.Context, id string, status model.FoodStatus) error {
	body := map[string]string{"status": string(status)}
	if err := c.call(ctx, http.MethodPatch, foodPath(id)+"/status", body, nil); err != nil {
		return fmt.Errorf("setting food %s status: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteFood(ctx context.Context, id string) error {
	if err := c.call(ctx, http.MethodDelete, foodPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting food %s: %w", id, err)
	}
	return nil
}

// fetchSeq GETs a JSON array on every iteration and yields its elements.
func fetchSeq[T any](ctx context.Context, c *Client, path, what string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var items []T
		if err := c.call(ctx, http.MethodGet, path, nil, &items); err != nil {
			var zero T
			yield(zero, fmt.Errorf("listing %s: %w", what, err))
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
