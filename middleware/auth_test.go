package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdspace/kbdspace-backend/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func authTestRouter() *gin.Engine {
	r := gin.New()
	r.GET("/whoami", AuthRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"user_id":  ctx.GetString(ContextUserIDKey),
			"username": ctx.GetString(ContextUsernameKey),
		})
	})
	return r
}

func doAuth(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	authTestRouter().ServeHTTP(w, req)
	return w
}

func TestAuthRequiredValidToken(t *testing.T) {
	token, err := utils.GenerateToken("user_alice", "alice", time.Hour)
	require.NoError(t, err)

	w := doAuth(t, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user_alice")
	assert.Contains(t, w.Body.String(), "alice")
}

func TestAuthRequiredRejects(t *testing.T) {
	expired, err := utils.GenerateToken("user_alice", "alice", -time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doAuth(t, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
