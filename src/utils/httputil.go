package utils

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/xerikson-cyber/Sirij-BOT/src/schemas"
)

// SendError writes an RFC 7807 error response and logs it.
func SendError(ctx *gin.Context, status int, title, detail, instance string) {
	resp := schemas.NewErrorResponse(status, title, detail, instance)
	slog.Error("request failed",
		"status", status,
		"title", title,
		"detail", detail,
		"instance", instance)
	ctx.JSON(status, resp)
}
