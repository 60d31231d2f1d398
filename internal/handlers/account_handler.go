package handlers

import (
	"net/http"
	"time"

	"chat-backend/internal/user"
)

type AccountResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func accountResponse(acc *user.Account) AccountResponse {
	return AccountResponse{ID: acc.ID, Username: acc.Username, IsAdmin: acc.IsAdmin, CreatedAt: acc.CreatedAt}
}

// RegisterHandler creates an account for a username and ed25519 public key.
// The key is then used as the bearer credential.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		PublicKey string `json:"public_key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	acc, err := user.Register(r.Context(), h.db, req.Username, req.PublicKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse(acc))
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountResponse(user.FromContext(r.Context())))
}
