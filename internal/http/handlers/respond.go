package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every error path answers with the same envelope: a human-readable msg plus
// the numeric status echoed in the body. Nothing is ever swallowed into a
// log-only branch; a handler either writes a success payload or one of these.

func RespondError(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, gin.H{
		"msg":    msg,
		"status": status,
	})
}

func RespondBadRequest(ctx *gin.Context, msg string) {
	RespondError(ctx, http.StatusBadRequest, msg)
}

func RespondNotFound(ctx *gin.Context, msg string) {
	RespondError(ctx, http.StatusNotFound, msg)
}

func RespondInternal(ctx *gin.Context, msg string) {
	RespondError(ctx, http.StatusInternalServerError, msg)
}
