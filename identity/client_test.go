package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "sk_test_key")
	client.httpClient = srv.Client()
	return srv, client
}

func TestGetUsersBatchRequest(t *testing.T) {
	var gotAuth string
	var gotIDs []string
	var gotLimit string
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotIDs = r.URL.Query()["user_id"]
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode([]providerUser{
			{ID: "user_1", Username: "alice", FirstName: "Alice", LastName: "Liddell", ProfileImageURL: "https://img/a.png"},
			{ID: "user_2", Username: "bob", FirstName: "Bob", LastName: "", ProfileImageURL: "https://img/b.png"},
		})
	})

	authors, err := client.GetUsers(context.Background(), []string{"user_1", "user_2"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.Equal(t, []string{"user_1", "user_2"}, gotIDs)
	assert.Equal(t, "100", gotLimit)

	require.Len(t, authors, 2)
	assert.Equal(t, Author{ID: "user_1", Username: "alice", FullName: "Alice Liddell", ProfileImageURL: "https://img/a.png"}, authors[0])
	assert.Equal(t, "Bob", authors[1].FullName, "missing last name is not padded with a trailing space")
}

func TestGetUsersEmptyInput(t *testing.T) {
	called := false
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	authors, err := client.GetUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, authors)
	assert.False(t, called, "no request for an empty id set")
}

func TestGetUsersTruncatesOversizedBatch(t *testing.T) {
	var gotIDs []string
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query()["user_id"]
		json.NewEncoder(w).Encode([]providerUser{})
	})

	ids := make([]string, MaxBatchSize+20)
	for i := range ids {
		ids[i] = "user"
	}
	_, err := client.GetUsers(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, gotIDs, MaxBatchSize)
}

func TestGetUserByUsername(t *testing.T) {
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		json.NewEncoder(w).Encode([]providerUser{
			{ID: "user_1", Username: "alice", FirstName: "Alice", LastName: "Liddell"},
		})
	})

	author, err := client.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "user_1", author.ID)
	assert.Equal(t, "Alice Liddell", author.FullName)
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]providerUser{})
	})

	_, err := client.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProviderErrorStatus(t *testing.T) {
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	})

	_, err := client.GetUsers(context.Background(), []string{"user_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = client.GetUserByUsername(context.Background(), "alice")
	assert.Error(t, err)
}
