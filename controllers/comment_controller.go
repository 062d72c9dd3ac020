package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kbdspace/kbdspace-backend/config"
	"github.com/kbdspace/kbdspace-backend/identity"
	"github.com/kbdspace/kbdspace-backend/models"
	"github.com/kbdspace/kbdspace-backend/ratelimit"
	"github.com/kbdspace/kbdspace-backend/utils"
)

// CommentController manages CRUD operations for comments. It carries its own
// limiter so comment and post quotas count independently.
type CommentController struct {
	db       *gorm.DB
	provider identity.Provider
	limiter  ratelimit.Limiter
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB, provider identity.Provider, limiter ratelimit.Limiter) *CommentController {
	return &CommentController{db: db, provider: provider, limiter: limiter}
}

// validateCommentContent enforces the configured length bound and returns the
// sanitized content.
func validateCommentContent(ctx *gin.Context, raw string) (string, bool) {
	cfg := config.Get()
	if raw == "" || utf8.RuneCountInString(raw) > cfg.CommentContentMaxLen {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeContentBounds,
			fmt.Sprintf("content must be 1-%d characters", cfg.CommentContentMaxLen))
		return "", false
	}
	content := utils.Sanitize(raw)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeContentBounds, "content cannot be empty")
		return "", false
	}
	return content, true
}

// ListPostComments returns the newest comments on a post with author information.
func (c *CommentController) ListPostComments(ctx *gin.Context) {
	postID := strings.TrimSpace(ctx.Param("id"))
	if postID == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing post id")
		return
	}

	var comments []models.Comment
	q := c.db.Where("post_id = ?", postID).Order("created_at DESC").Limit(config.Get().ListMaxItems)
	if err := q.Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to list comments")
		return
	}

	items, err := attachCommentAuthors(ctx.Request.Context(), c.provider, comments)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "author not found")
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// ListUserComments returns comments created by a specific user, newest first.
func (c *CommentController) ListUserComments(ctx *gin.Context) {
	userID := strings.TrimSpace(ctx.Param("id"))
	if userID == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing user id")
		return
	}

	var comments []models.Comment
	q := c.db.Where("author_id = ?", userID).Order("created_at DESC").Limit(config.Get().ListMaxItems)
	if err := q.Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to list user comments")
		return
	}

	items, err := attachCommentAuthors(ctx.Request.Context(), c.provider, comments)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "author not found")
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// CountPostComments returns the number of comments on a post. Counts are not
// capped, unlike lists.
func (c *CommentController) CountPostComments(ctx *gin.Context) {
	postID := strings.TrimSpace(ctx.Param("id"))
	if postID == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing post id")
		return
	}

	var count int64
	if err := c.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to count comments")
		return
	}
	utils.Success(ctx, gin.H{"count": count})
}

// CountUserComments returns the number of comments a user has created.
func (c *CommentController) CountUserComments(ctx *gin.Context) {
	userID := strings.TrimSpace(ctx.Param("id"))
	if userID == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing user id")
		return
	}

	var count int64
	if err := c.db.Model(&models.Comment{}).Where("author_id = ?", userID).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to count user comments")
		return
	}
	utils.Success(ctx, gin.H{"count": count})
}

// CreateComment allows authenticated users to comment on a post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidPayload, "invalid request payload")
		return
	}

	content, ok := validateCommentContent(ctx, req.Content)
	if !ok {
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := c.db.First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, utils.CodePostNotFound, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "unauthorized")
		return
	}

	allowed, err := c.limiter.Allow(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "rate limiter unavailable")
		return
	}
	if !allowed {
		utils.Error(ctx, http.StatusTooManyRequests, utils.CodeRateLimited, "you have exceeded the rate limit")
		return
	}

	comment := models.Comment{
		AuthorID: userID,
		PostID:   post.ID,
		Content:  content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to create comment")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + post.ID)

	utils.Success(ctx, gin.H{"comment": comment})
}

// UpdateComment allows the author to edit their comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidPayload, "invalid request payload")
		return
	}

	content, ok := validateCommentContent(ctx, req.Content)
	if !ok {
		return
	}

	commentID := ctx.Param("id")
	var comment models.Comment
	if err := c.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, utils.CodeCommentNotFound, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to load comment")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "unauthorized")
		return
	}
	if comment.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, utils.CodeNotOwner, "you can only update your own comments")
		return
	}

	comment.Content = content
	if err := c.db.Save(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to update comment")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + comment.PostID)

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment allows the author to delete their comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	commentID := strings.TrimSpace(ctx.Param("id"))
	if commentID == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing comment id")
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, utils.CodeCommentNotFound, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to load comment")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "unauthorized")
		return
	}
	if comment.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, utils.CodeNotOwner, "you can only delete your own comments")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to delete comment")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + comment.PostID)

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeletePostComments bulk-deletes every comment under a post. Only the post
// owner may call it; the post-delete path performs the same cleanup inline.
func (c *CommentController) DeletePostComments(ctx *gin.Context) {
	postID := ctx.Param("id")
	var post models.Post
	if err := c.db.First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, utils.CodePostNotFound, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "unauthorized")
		return
	}
	if post.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, utils.CodeNotOwner, "you can only clear comments on your own posts")
		return
	}

	res := c.db.Where("post_id = ?", post.ID).Delete(&models.Comment{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to delete comments")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + post.ID)

	utils.Success(ctx, gin.H{"count": res.RowsAffected})
}
