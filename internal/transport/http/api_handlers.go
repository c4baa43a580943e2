package http

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// APIHandlers provides read-only REST views of relay state.
type APIHandlers struct {
	hub *core.Hub
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub) *APIHandlers {
	return &APIHandlers{hub: hub}
}

// UsersResponse is the presence snapshot body.
type UsersResponse struct {
	Online int          `json:"online"`
	Users  []proto.User `json:"users"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListUsers returns the clients currently online, sorted by name.
// GET /api/users
func (h *APIHandlers) ListUsers(c *gin.Context) {
	users := h.hub.Users()
	slices.SortFunc(users, func(a, b proto.User) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	c.JSON(http.StatusOK, UsersResponse{Online: len(users), Users: users})
}

// Health reports liveness.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
