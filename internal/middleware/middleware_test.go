package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/testutil"
)

type stubUsers struct {
	user *model.User
	err  error
}

func (s *stubUsers) Register(context.Context, string, string, string) (string, error) { return "", nil }
func (s *stubUsers) Login(context.Context, string, string) (string, error)            { return "", nil }
func (s *stubUsers) Logout(context.Context, uint64) error                             { return nil }
func (s *stubUsers) GetByID(context.Context, uint64) (*model.User, error)             { return s.user, nil }

func (s *stubUsers) Authenticate(_ context.Context, key string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if key != "good" {
		return nil, errs.ErrInvalidToken
	}
	return s.user, nil
}

func newEngine(users *stubUsers, buf *bytes.Buffer) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(slog.New(slog.NewTextHandler(buf, nil))))
	r.GET("/private", RequireAuth(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).Username, "request_id": GetRequestID(c)})
	})
	r.GET("/public", func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	var buf bytes.Buffer
	users := &stubUsers{user: &model.User{ID: 7, Username: "alice"}}
	r := newEngine(users, &buf)

	w := testutil.Do(r, http.MethodGet, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Do(r, http.MethodGet, "/private", nil, "Authorization", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Do(r, http.MethodGet, "/private", nil, "Authorization", "bearer good", RequestIDHeader, "abc")
	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.Decode[map[string]string](t, w)
	assert.Equal(t, "alice", body["user"])
	assert.Equal(t, "abc", body["request_id"])
	assert.Contains(t, buf.String(), "user_id=7")
	assert.Contains(t, buf.String(), "request_id=abc")

	users.err = errors.New("db down")
	w = testutil.Do(r, http.MethodGet, "/private", nil, "Authorization", "Bearer good")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestRequestIDGenerated(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&stubUsers{}, &buf)

	w := testutil.Do(r, http.MethodGet, "/public", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Contains(t, buf.String(), "status=204")
}
