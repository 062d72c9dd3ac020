package controllers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbdspace/kbdspace-backend/identity"
	"github.com/kbdspace/kbdspace-backend/middleware"
	"github.com/kbdspace/kbdspace-backend/models"
)

// postWithAuthor pairs a stored post with its resolved author profile.
type postWithAuthor struct {
	Post   models.Post     `json:"post"`
	Author identity.Author `json:"author"`
}

// commentWithAuthor pairs a stored comment with its resolved author profile.
type commentWithAuthor struct {
	Comment models.Comment  `json:"comment"`
	Author  identity.Author `json:"author"`
}

// resolveAuthors batches the distinct author ids into one provider call and
// returns the profiles keyed by id. Any id the provider cannot resolve fails
// the whole lookup: a record without an author is an integrity violation, not
// a row to silently drop.
func resolveAuthors(ctx context.Context, provider identity.Provider, ids []string) (map[string]identity.Author, error) {
	distinct := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	if len(distinct) == 0 {
		return map[string]identity.Author{}, nil
	}

	users, err := provider.GetUsers(ctx, distinct)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]identity.Author, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range distinct {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("author %s not found", id)
		}
	}
	return byID, nil
}

// attachPostAuthors joins posts with author profiles, preserving store order.
func attachPostAuthors(ctx context.Context, provider identity.Provider, posts []models.Post) ([]postWithAuthor, error) {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors, err := resolveAuthors(ctx, provider, ids)
	if err != nil {
		return nil, err
	}

	items := make([]postWithAuthor, 0, len(posts))
	for _, p := range posts {
		items = append(items, postWithAuthor{Post: p, Author: authors[p.AuthorID]})
	}
	return items, nil
}

// attachCommentAuthors joins comments with author profiles, preserving store order.
func attachCommentAuthors(ctx context.Context, provider identity.Provider, comments []models.Comment) ([]commentWithAuthor, error) {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := resolveAuthors(ctx, provider, ids)
	if err != nil {
		return nil, err
	}

	items := make([]commentWithAuthor, 0, len(comments))
	for _, c := range comments {
		items = append(items, commentWithAuthor{Comment: c, Author: authors[c.AuthorID]})
	}
	return items, nil
}

func getUserID(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
