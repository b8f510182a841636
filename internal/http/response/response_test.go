package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
)

func TestStatusOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := StatusOKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("something went wrong")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "something went wrong", resp.Error)
}

func TestValidationError(t *testing.T) {
	type TestStruct struct {
		Name  string `validate:"required"`
		Email string `validate:"email"`
		Role  string `validate:"oneof=technician employer"`
		Years int    `validate:"max=60"`
	}

	err := validator.New().Struct(TestStruct{Email: "nope", Role: "admin", Years: 61})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Name is a required field")
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Role must be one of [technician employer]")
	assert.Contains(t, resp.Error, "field Years must be at most 60")
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "not found", err: apperr.NotFound("technician"), wantStatus: http.StatusNotFound, wantError: "technician not found"},
		{name: "forbidden", err: apperr.Forbidden("review belongs to another user"), wantStatus: http.StatusForbidden, wantError: "review belongs to another user"},
		{name: "conflict", err: apperr.Conflict("subscription is CANCELED", nil), wantStatus: http.StatusConflict, wantError: "subscription is CANCELED"},
		{name: "internal detail is hidden", err: errors.New("storage.GetPlan: connection refused"), wantStatus: http.StatusInternalServerError, wantError: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			Fail(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.wantError, got.Error)
		})
	}
}
