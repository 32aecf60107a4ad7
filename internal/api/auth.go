package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/auth"
	"github.com/plateshare/plateshare/internal/identity"
	"github.com/plateshare/plateshare/internal/model"
)

// TokenRevoker records revoked token ids. *store.SQLStore satisfies it.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
}

// AuthHandler handles session endpoints.
type AuthHandler struct {
	Auth   *auth.Provider
	Tokens TokenRevoker
	Log    logrus.FieldLogger
}

type meResponse struct {
	State    string          `json:"state"`
	Identity *model.Identity `json:"identity,omitempty"`
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := identity.FromContext(r.Context())

	resp := meResponse{State: session.State().String()}
	if who, ok := session.Identity(); ok {
		resp.Identity = &who
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Auth.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if h.Tokens == nil {
		jsonError(w, http.StatusNotImplemented, codeInternal, "token revocation is not configured")
		return
	}

	if err := h.Tokens.RevokeToken(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.WithField("email", claims.Email).Info("signed out")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
