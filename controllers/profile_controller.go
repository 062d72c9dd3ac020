package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbdspace/kbdspace-backend/identity"
	"github.com/kbdspace/kbdspace-backend/utils"
)

// ProfileController serves identity-provider profile lookups.
type ProfileController struct {
	provider identity.Provider
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(provider identity.Provider) *ProfileController {
	return &ProfileController{provider: provider}
}

// GetUserByUsername returns the public profile for a username.
func (p *ProfileController) GetUserByUsername(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeMissingParam, "missing username")
		return
	}

	author, err := p.provider.GetUserByUsername(ctx.Request.Context(), username)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			utils.Error(ctx, http.StatusNotFound, utils.CodeUserNotFound, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "failed to look up user")
		return
	}

	utils.Success(ctx, gin.H{"author": author})
}
