package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	usecase "users-api/internal/usecase/user"
	apperrors "users-api/pkg/errors"
)

// MockUserUsecase is a mock implementation of user.Usecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) ListUsers(ctx context.Context) ([]usecase.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.User), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, req usecase.UpdateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) error {
	return m.Called(ctx, req).Error(0)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	handler := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/users", handler.ListUsers)
	r.GET("/users/:id", handler.GetUser)
	r.POST("/users", handler.CreateUser)
	r.PUT("/users/:id", handler.UpdateUser)
	r.DELETE("/users/:id", handler.DeleteUser)
	return r, mockUsecase
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func strPtr(s string) *string { return &s }

var ann = &usecase.User{
	ID:        1,
	Name:      "Ann",
	Email:     "ann@x.com",
	CreatedAt: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{Name: "Ann", Email: "ann@x.com"}).Return(ann, nil)

		w := doRequest(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":1,"name":"Ann","email":"ann@x.com","created_at":"2026-10-14T09:30:00Z"}`, w.Body.String())
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodPost, "/users", "invalid json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, MsgInvalidJSONBody, decodeError(t, w))
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Non-string field is rejected", func(t *testing.T) {
		for _, body := range []string{`{"name":1,"email":"a@x.com"}`, `{"name":"Ann","email":true}`} {
			r, mockUsecase := setupTest(t)

			w := doRequest(r, http.MethodPost, "/users", body)

			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Equal(t, MsgInvalidJSONBody, decodeError(t, w), body)
			mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		}
	})

	t.Run("Empty body reaches validation", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{}).
			Return(nil, apperrors.NewValidationError("", usecase.MsgNameAndEmailRequired))

		w := doRequest(r, http.MethodPost, "/users", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, usecase.MsgNameAndEmailRequired, decodeError(t, w))
	})

	t.Run("Duplicate email", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAlreadyExistsError("user", "email already exists"))

		w := doRequest(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "email already exists", decodeError(t, w))
	})

	t.Run("Database error hides cause", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewInternalError("failed to create user", errors.New("dial tcp: connection refused")))

		w := doRequest(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, MsgDatabaseError, decodeError(t, w))
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 1}).Return(ann, nil)

		w := doRequest(r, http.MethodGet, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ann.ID, resp.ID)
		assert.Equal(t, ann.Email, resp.Email)
	})

	t.Run("Non-numeric ID is not found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doRequest(r, http.MethodGet, "/users/abc", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.MsgNotFound, decodeError(t, w))
		mockUsecase.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 2}).
			Return(nil, apperrors.NewNotFoundError("user", "Not found"))

		w := doRequest(r, http.MethodGet, "/users/2", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Not found", decodeError(t, w))
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Partial update", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		updated := *ann
		updated.Email = "ann2@x.com"
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 1, Email: strPtr("ann2@x.com")}).Return(&updated, nil)

		w := doRequest(r, http.MethodPut, "/users/1", `{"email":"ann2@x.com"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Ann", resp.Name)
		assert.Equal(t, "ann2@x.com", resp.Email)
	})

	t.Run("Null fields are omitted", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 1}).Return(ann, nil)

		w := doRequest(r, http.MethodPut, "/users/1", `{"name":null}`)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Empty body is a no-op", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 1}).Return(ann, nil)

		w := doRequest(r, http.MethodPut, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, apperrors.NewNotFoundError("user", "Not found"))

		w := doRequest(r, http.MethodPut, "/users/5", `{"name":"X"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Non-numeric ID is not found", func(t *testing.T) {
		r, _ := setupTest(t)

		w := doRequest(r, http.MethodPut, "/users/abc", "{}")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAlreadyExistsError("user", "email already exists"))

		w := doRequest(r, http.MethodPut, "/users/1", `{"email":"bob@x.com"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 1}).Return(nil)

		w := doRequest(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 1}).
			Return(apperrors.NewNotFoundError("user", "Not found"))

		w := doRequest(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return([]usecase.User{
			{ID: 3, Name: "C"}, {ID: 2, Name: "B"}, {ID: 1, Name: "A"},
		}, nil)

		w := doRequest(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp []UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 3)
		assert.Equal(t, int64(3), resp[0].ID)
	})

	t.Run("Empty list is an array", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return([]usecase.User{}, nil)

		w := doRequest(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Database error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return(nil, errors.New("unexpected"))

		w := doRequest(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, MsgDatabaseError, decodeError(t, w))
	})
}
