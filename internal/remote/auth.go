package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/plateshare/plateshare/internal/model"
)

type meBody struct {
	State    string          `json:"state"`
	Identity *model.Identity `json:"identity"`
}

// Whoami returns the identity the server resolved the client's token to.
// A client without a usable token gets model.ErrForbidden.
func (c *Client) Whoami(ctx context.Context) (model.Identity, error) {
	var out meBody
	if err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return model.Identity{}, fmt.Errorf("resolving identity: %w", err)
	}
	if out.Identity == nil {
		return model.Identity{}, fmt.Errorf("session is %s: %w", out.State, model.ErrForbidden)
	}
	return *out.Identity, nil
}

// Logout revokes the client's token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.call(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
