package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kbdspace/kbdspace-backend/config"
	"github.com/kbdspace/kbdspace-backend/identity"
	"github.com/kbdspace/kbdspace-backend/models"
	"github.com/kbdspace/kbdspace-backend/ratelimit"
	"github.com/kbdspace/kbdspace-backend/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	db       *gorm.DB
	provider identity.Provider
	limiter  ratelimit.Limiter
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, provider identity.Provider, limiter ratelimit.Limiter) *PostController {
	return &PostController{db: db, provider: provider, limiter: limiter}
}

type postPayload struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Tag     string `json:"tag" binding:"required"`
}

// validatePostPayload enforces the configured length bounds and the tag
// enumeration, returning sanitized title/content on success.
func validatePostPayload(ctx *gin.Context, req *postPayload) (title, content string, ok bool) {
	cfg := config.Get()

	title = strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > cfg.TitleMaxLen {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeTitleBounds,
			fmt.Sprintf("title must be 1-%d characters", cfg.TitleMaxLen))
		return "", "", false
	}
	if req.Content == "" || utf8.RuneCountInString(req.Content) > cfg.PostContentMaxLen {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeContentBounds,
			fmt.Sprintf("content must be 1-%d characters", cfg.PostContentMaxLen))
		return "", "", false
	}
	if !models.ValidTag(req.Tag) {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidTag, "invalid tag")
		return "", "", false
	}

	title = utils.Sanitize(title)
	content = utils.Sanitize(req.Content)
	if title == "" || content == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeContentBounds, "content cannot be empty")
		return "", "", false
	}
	return title, content, true
}

// ListPosts returns the newest (or oldest) posts with author information.
func (p *PostController) ListPosts(ctx *gin.Context) {
	sort := ctx.DefaultQuery("sort", "recent")
	var order string
	switch sort {
	case "recent":
		order = "created_at DESC"
	case "oldest":
		order = "created_at ASC"
	default:
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidPayload, "sort must be recent or oldest")
		return
	}

	cacheKey := "cache:posts:list:sort=" + sort
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var posts []models.Post
	if err := p.db.Order(order).Limit(config.Get().ListMaxItems).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to list posts")
		return
	}

	items, err := attachPostAuthors(ctx.Request.Context(), p.provider, posts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "author not found")
		return
	}

	payload := gin.H{"items": items}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its author.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var post models.Post
	if err := p.db.First(&post, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, utils.CodePostNotFound, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to load post")
		return
	}

	items, err := attachPostAuthors(ctx.Request.Context(), p.provider, []models.Post{post})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "author not found")
		return
	}

	payload := gin.H{"post": items[0].Post, "author": items[0].Author}
	utils.CacheSetJSON("cache:post:detail:"+postID, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// ListUserPosts returns posts created by a specific user, newest first.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	userID := strings.TrimSpace(ctx.Param("id"))
	if userID == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing user id")
		return
	}

	cacheKey := "cache:user:" + userID + ":posts:"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var posts []models.Post
	q := p.db.Where("author_id = ?", userID).Order("created_at DESC").Limit(config.Get().ListMaxItems)
	if err := q.Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to list user posts")
		return
	}

	items, err := attachPostAuthors(ctx.Request.Context(), p.provider, posts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "author not found")
		return
	}

	payload := gin.H{"items": items}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// CountUserPosts returns the number of posts a user has created. Counts are
// not capped, unlike lists.
func (p *PostController) CountUserPosts(ctx *gin.Context) {
	userID := strings.TrimSpace(ctx.Param("id"))
	if userID == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing user id")
		return
	}

	var count int64
	if err := p.db.Model(&models.Post{}).Where("author_id = ?", userID).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to count user posts")
		return
	}
	utils.Success(ctx, gin.H{"count": count})
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidPayload, "invalid request payload")
		return
	}

	title, content, ok := validatePostPayload(ctx, &req)
	if !ok {
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "unauthorized")
		return
	}

	allowed, err := p.limiter.Allow(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "rate limiter unavailable")
		return
	}
	if !allowed {
		utils.Error(ctx, http.StatusTooManyRequests, utils.CodeRateLimited, "you have exceeded the rate limit")
		return
	}

	post := models.Post{
		AuthorID: userID,
		Title:    title,
		Content:  content,
		Tag:      req.Tag,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:user:" + userID + ":posts:")

	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost allows the author to update their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req postPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidPayload, "invalid request payload")
		return
	}

	title, content, ok := validatePostPayload(ctx, &req)
	if !ok {
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, "id = ?", postID).Error; err != nil {
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
		utils.Error(ctx, http.StatusForbidden, utils.CodeNotOwner, "you can only update your own posts")
		return
	}

	post.Title = title
	post.Content = content
	post.Tag = req.Tag
	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:user:" + userID + ":posts:")

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost allows the author to delete their post. Comments under the post
// are deleted in the same transaction so no orphans survive.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, "id = ?", postID).Error; err != nil {
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
		utils.Error(ctx, http.StatusForbidden, utils.CodeNotOwner, "you can only delete your own posts")
		return
	}

	var commentsDeleted int64
	err := p.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		commentsDeleted = res.RowsAffected
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:user:" + userID + ":posts:")

	utils.Success(ctx, gin.H{"post": post, "comments_deleted": commentsDeleted})
}
