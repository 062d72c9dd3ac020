package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the hosted identity provider's user API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client for the provider at baseURL authenticated by apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// providerUser is the wire shape of a user record on the provider side.
type providerUser struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

func (u providerUser) toAuthor() Author {
	return Author{
		ID:              u.ID,
		Username:        u.Username,
		FullName:        strings.TrimSpace(u.FirstName + " " + u.LastName),
		ProfileImageURL: u.ProfileImageURL,
	}
}

// GetUsers fetches up to MaxBatchSize profiles by id in one call.
func (c *Client) GetUsers(ctx context.Context, ids []string) ([]Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		ids = ids[:MaxBatchSize]
	}

	q := url.Values{}
	for _, id := range ids {
		q.Add("user_id", id)
	}
	q.Set("limit", strconv.Itoa(MaxBatchSize))

	users, err := c.listUsers(ctx, q)
	if err != nil {
		return nil, err
	}

	authors := make([]Author, 0, len(users))
	for _, u := range users {
		authors = append(authors, u.toAuthor())
	}
	return authors, nil
}

// GetUserByUsername fetches a single profile by username.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*Author, error) {
	q := url.Values{}
	q.Set("username", username)

	users, err := c.listUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}

	author := users[0].toAuthor()
	return &author, nil
}

func (c *Client) listUsers(ctx context.Context, query url.Values) ([]providerUser, error) {
	endpoint := c.baseURL + "/v1/users?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: unexpected status %d from user API", resp.StatusCode)
	}

	var users []providerUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("identity: decode response: %w", err)
	}
	return users, nil
}
