package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kbdspace/kbdspace-backend/identity"
	"github.com/kbdspace/kbdspace-backend/middleware"
	"github.com/kbdspace/kbdspace-backend/models"
	"github.com/kbdspace/kbdspace-backend/ratelimit"
	"github.com/kbdspace/kbdspace-backend/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeProvider is an in-memory identity.Provider for tests.
type fakeProvider struct {
	users map[string]identity.Author
	err   error
}

func newFakeProvider(authors ...identity.Author) *fakeProvider {
	users := make(map[string]identity.Author, len(authors))
	for _, a := range authors {
		users[a.ID] = a
	}
	return &fakeProvider{users: users}
}

func (f *fakeProvider) GetUsers(ctx context.Context, ids []string) ([]identity.Author, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []identity.Author
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetUserByUsername(ctx context.Context, username string) (*identity.Author, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			author := u
			return &author, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	provider *fakeProvider
}

var testDBSeq int

// newTestEnv wires controllers against an in-memory sqlite database and a
// fake identity provider. mutationLimit bounds creations per principal per
// minute; tests not exercising the quota pass a high value.
func newTestEnv(t *testing.T, provider *fakeProvider, mutationLimit int) *testEnv {
	t.Helper()

	testDBSeq++
	dsn := fmt.Sprintf("file:controllers_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Post{}, &models.Comment{}))

	postLimiter := ratelimit.NewLocalLimiter(mutationLimit, time.Minute)
	commentLimiter := ratelimit.NewLocalLimiter(mutationLimit, time.Minute)

	postController := NewPostController(db, provider, postLimiter)
	commentController := NewCommentController(db, provider, commentLimiter)
	profileController := NewProfileController(provider)

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/posts/:id/comments", commentController.ListPostComments)
	api.GET("/posts/:id/comments/count", commentController.CountPostComments)
	api.GET("/users/:id/posts", postController.ListUserPosts)
	api.GET("/users/:id/posts/count", postController.CountUserPosts)
	api.GET("/users/:id/comments", commentController.ListUserComments)
	api.GET("/users/:id/comments/count", commentController.CountUserComments)
	api.GET("/profile/:username", profileController.GetUserByUsername)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.DELETE("/posts/:id/comments", commentController.DeletePostComments)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)

	return &testEnv{router: r, db: db, provider: provider}
}

func testToken(t *testing.T, userID, username string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, username, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, "unexpected status, body: %s", w.Body.String())
}

var (
	alice = identity.Author{ID: "user_alice", Username: "alice", FullName: "Alice Liddell", ProfileImageURL: "https://img.example/alice.png"}
	bob   = identity.Author{ID: "user_bob", Username: "bob", FullName: "Bob Bones", ProfileImageURL: "https://img.example/bob.png"}
)

func seedPost(t *testing.T, db *gorm.DB, authorID string, createdAt time.Time, title string) models.Post {
	t.Helper()
	post := models.Post{
		AuthorID:  authorID,
		Title:     title,
		Content:   "<p>seed content</p>",
		Tag:       "Discussion",
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func seedComment(t *testing.T, db *gorm.DB, authorID, postID string, createdAt time.Time) models.Comment {
	t.Helper()
	comment := models.Comment{
		AuthorID:  authorID,
		PostID:    postID,
		Content:   "<p>seed comment</p>",
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&comment).Error)
	return comment
}
