package utils

import "github.com/gin-gonic/gin"

// Application error code blocks, grouped by HTTP class.
const (
	CodeOK = 0

	// 400 validation
	CodeInvalidPayload = 40020
	CodeTitleBounds    = 40021
	CodeContentBounds  = 40022
	CodeInvalidTag     = 40023
	CodeMissingParam   = 40024

	// 401
	CodeUnauthorized = 40110

	// 403 ownership
	CodeNotOwner = 40310

	// 404
	CodePostNotFound    = 40410
	CodeCommentNotFound = 40411
	CodeUserNotFound    = 40412
	CodeRouteNotFound   = 40400

	// 429 mutation quota; no retry-after is attached
	CodeRateLimited = 42910

	// 500, including author-join integrity failures
	CodeInternal = 50010
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, CodeOK, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
