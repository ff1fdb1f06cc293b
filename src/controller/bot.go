package controller

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xerikson-cyber/Sirij-BOT/src/schemas"
	"github.com/xerikson-cyber/Sirij-BOT/src/service"
	"github.com/xerikson-cyber/Sirij-BOT/src/utils"
)

// BotController exposes the dialog engine over HTTP. Each handler is
// one inbound chat event for the user in the :user_id path segment.
type BotController struct {
	Conversation *service.ConversationService
	Log          *logrus.Logger
}

func NewBotController(conversation *service.ConversationService, log *logrus.Logger) *BotController {
	return &BotController{
		Conversation: conversation,
		Log:          log,
	}
}

func parseUserID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendError(ctx, http.StatusBadRequest, "Bad Request",
			"user_id must be a positive integer", ctx.FullPath())
		return 0, false
	}
	return id, true
}

func sendReply(ctx *gin.Context, reply service.Reply) {
	ctx.JSON(http.StatusOK, schemas.BotReply{
		Reply:  reply.Message,
		Status: string(reply.Status),
	})
}

// Start handles POST /bot/:user_id/start.
func (bc *BotController) Start(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	reply, err := bc.Conversation.Start(ctx.Request.Context(), userID)
	if err != nil && reply.Message == "" {
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to start session", ctx.FullPath())
		return
	}
	sendReply(ctx, reply)
}

// Cancel handles POST /bot/:user_id/cancel.
func (bc *BotController) Cancel(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	reply, err := bc.Conversation.Cancel(ctx.Request.Context(), userID)
	if err != nil && reply.Message == "" {
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to cancel session", ctx.FullPath())
		return
	}
	sendReply(ctx, reply)
}

// Help handles POST /bot/:user_id/help.
func (bc *BotController) Help(ctx *gin.Context) {
	if _, ok := parseUserID(ctx); !ok {
		return
	}
	sendReply(ctx, bc.Conversation.Help())
}

// Message handles POST /bot/:user_id/message with a JSON text body.
func (bc *BotController) Message(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	var req schemas.BotMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.SendError(ctx, http.StatusBadRequest, "Bad Request",
			"invalid JSON format: "+err.Error(), ctx.FullPath())
		return
	}

	reply, err := bc.Conversation.HandleText(ctx.Request.Context(), userID, req.Text)
	if err != nil && reply.Message == "" {
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to process message", ctx.FullPath())
		return
	}
	sendReply(ctx, reply)
}

// Photo handles POST /bot/:user_id/photo. The image comes either as a
// multipart "photo" file or as the raw request body.
func (bc *BotController) Photo(ctx *gin.Context) {
	userID, ok := parseUserID(ctx)
	if !ok {
		return
	}

	payload, err := readPhotoPayload(ctx)
	if err != nil {
		utils.SendError(ctx, http.StatusBadRequest, "Bad Request",
			"could not read image: "+err.Error(), ctx.FullPath())
		return
	}

	reply, err := bc.Conversation.HandlePhoto(ctx.Request.Context(), userID, payload)
	if err != nil && reply.Message == "" {
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to process photo", ctx.FullPath())
		return
	}
	sendReply(ctx, reply)
}

func readPhotoPayload(ctx *gin.Context) ([]byte, error) {
	if file, err := ctx.FormFile("photo"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(ctx.Request.Body)
}
