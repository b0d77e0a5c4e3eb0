package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
)

func TestRespondErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		code int
	}{
		{errs.ErrTicketNotFound, http.StatusNotFound},
		{errs.ErrSolutionNotFound, http.StatusNotFound},
		{errs.ErrUsernameTaken, http.StatusBadRequest},
		{errs.ErrUserExists, http.StatusBadRequest},
		{fmt.Errorf("%w %q", errs.ErrUnknownSystem, "x"), http.StatusBadRequest},
		{&errs.PasswordError{Messages: []string{"short"}}, http.StatusBadRequest},
		{errs.ErrInvalidCredentials, http.StatusUnauthorized},
		{errs.ErrInvalidToken, http.StatusUnauthorized},
		{fmt.Errorf("%w: admins only", errs.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: timeout", errs.ErrGeneration), http.StatusBadGateway},
		{errs.ErrDocumentMissing, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestJSONName(t *testing.T) {
	assert.Equal(t, "username", jsonName("Username"))
	assert.Equal(t, "assigned_to", jsonName("AssignedTo"))
}
