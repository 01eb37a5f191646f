package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dwellio/dwellio-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerErrors(t *testing.T, body string) (int, []services.FieldError) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Register(rec, req)

	var resp struct {
		Errors []services.FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp.Errors
}

func TestRegisterValidation(t *testing.T) {
	t.Run("Multibyte Name Counted In Runes", func(t *testing.T) {
		// 40-character name (80 bytes); the bad email keeps the request from
		// reaching the store, so the only expected error is the email one.
		name := strings.Repeat("é", 40)
		code, errs := registerErrors(t, `{"name":"`+name+`","email":"bad","password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		require.Len(t, errs, 1)
		assert.Equal(t, "email", errs[0].Field)
	})

	t.Run("Too Long Name Rejected", func(t *testing.T) {
		name := strings.Repeat("é", 51)
		code, errs := registerErrors(t, `{"name":"`+name+`","email":"bad","password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		require.Len(t, errs, 2)
		assert.Equal(t, "name", errs[0].Field)
	})

	t.Run("Short Password And Bad Role Rejected", func(t *testing.T) {
		code, errs := registerErrors(t, `{"name":"Jo","email":"bad","password":"short","role":"landlord"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		assert.ElementsMatch(t, []string{"email", "password", "role"}, fields)
	})
}
