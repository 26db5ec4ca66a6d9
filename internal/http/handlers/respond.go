package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error bodies keep the original wire shape the frontend consumes:
// {"erro": msg} plus an optional "detalhe" with the underlying cause.

func RespondError(ctx *gin.Context, status int, message, detail string) {
	body := gin.H{"erro": message}

	if detail != "" {
		body["detalhe"] = detail
	}

	ctx.JSON(status, body)
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, message, "")
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, "")
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, message, "")
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, "")
}

func RespondInternal(ctx *gin.Context, message, detail string) {
	RespondError(ctx, http.StatusInternalServerError, message, detail)
}
