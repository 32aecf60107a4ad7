package remote

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

type requestBody struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
	Contact  string `json:"contact"`
}

func requestPath(id string) string {
	return "/api/requests/" + url.PathEscape(id)
}

// InsertRequest creates a request as the client's identity. The server
// fills in requester, status, donor email and timestamps.
func (c *Client) InsertRequest(ctx context.Context, r *model.Request) error {
	body := requestBody{Location: r.Location, Reason: r.Reason, Contact: r.Contact}

	var out model.Request
	if err := c.call(ctx, http.MethodPost, foodPath(r.FoodID)+"/requests", body, &out); err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	*r = out
	return nil
}

func (c *Client) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	var out model.Request
	if err := c.call(ctx, http.MethodGet, requestPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("getting request %s: %w", id, err)
	}
	return &out, nil
}

// ListRequests lists the requests of one food item, or, without a food id,
// the requests addressed to the client's identity as donor. DonorEmail is
// decided by the server and ignored here.
func (c *Client) ListRequests(ctx context.Context, filter store.RequestFilter) iter.Seq2[model.Request, error] {
	path := "/api/requests"
	if filter.FoodID != "" {
		path = foodPath(filter.FoodID) + "/requests"
	}
	if filter.Status != "" {
		path += "?" + url.Values{"status": {filter.Status}}.Encode()
	}
	return fetchSeq[model.Request](ctx, c, path, "requests")
}

// TransitionRequest asks the server to decide a pending request.
func (c *Client) TransitionRequest(ctx context.Context, id string, from, to model.RequestStatus) (*model.Request, error) {
	if from != model.RequestPending {
		return nil, model.Invalid("status", fmt.Sprintf("only pending requests can be decided, not %q", from))
	}

	var out model.Request
	body := map[string]string{"status": string(to)}
	if err := c.call(ctx, http.MethodPatch, requestPath(id), body, &out); err != nil {
		return nil, fmt.Errorf("updating request %s: %w", id, err)
	}
	return &out, nil
}
