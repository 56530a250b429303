package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-api/internal/usecase/user"
	apperrors "users-api/pkg/errors"
	"users-api/pkg/logger"
)

// Caller-facing messages produced by the handler itself
const (
	MsgDatabaseError   = "Database error"
	MsgInvalidJSONBody = "invalid JSON body"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user.
// Presence is validated by the usecase. Non-string values fail binding and
// are answered as an invalid body.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserRequest represents the HTTP request body for updating a user.
// Null or omitted fields keep their stored value.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, "ListUsers", err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = toResponse(&users[i])
	}

	c.JSON(http.StatusOK, resp)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	u, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, "GetUser", err)
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	u, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, "CreateUser", err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(u))
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	u, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, "UpdateUser", err)
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, "DeleteUser", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseID reads the :id path parameter. An id that is not an integer can never
// match a row, so it is answered like any other unknown id.
func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.handleError(c, "ParseID", apperrors.NewNotFoundError("user", apperrors.MsgNotFound))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into obj. An empty body decodes as {}.
func (h *UserHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidJSONBody})
		return false
	}
	return true
}

// handleError converts usecase errors to HTTP responses. Causes of unexpected
// failures are logged and replaced by a generic message.
func (h *UserHandler) handleError(c *gin.Context, op string, err error) {
	status := apperrors.HTTPStatus(err)
	log := logger.WithContext(c.Request.Context(), h.log)

	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("op", op), zap.Error(err))
	} else {
		log.Info("request rejected", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	}

	c.JSON(status, ErrorResponse{Error: apperrors.PublicMessage(err, MsgDatabaseError)})
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
