package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
	"github.com/xerikson-cyber/Sirij-BOT/src/repository"
	"github.com/xerikson-cyber/Sirij-BOT/src/schemas"
	"github.com/xerikson-cyber/Sirij-BOT/src/service"
	"github.com/xerikson-cyber/Sirij-BOT/src/utils"
)

// BriefingController exposes the read side over registered briefings.
type BriefingController struct {
	Service *service.BriefingService
	Log     *logrus.Logger
}

func NewBriefingController(service *service.BriefingService, log *logrus.Logger) *BriefingController {
	return &BriefingController{
		Service: service,
		Log:     log,
	}
}

// GetByID handles GET /briefings/:id.
func (bc *BriefingController) GetByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendError(ctx, http.StatusBadRequest, "Bad Request",
			"id must be a positive integer", ctx.FullPath())
		return
	}

	briefing, err := bc.Service.GetByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrBriefingNotFound) {
			utils.SendError(ctx, http.StatusNotFound, "Not Found",
				"briefing not found", ctx.FullPath())
			return
		}
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to load briefing", ctx.FullPath())
		return
	}

	ctx.JSON(http.StatusOK, briefing)
}

// ListByUser handles GET /briefings/user/:user_id?limit=n.
func (bc *BriefingController) ListByUser(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		utils.SendError(ctx, http.StatusBadRequest, "Bad Request",
			"user_id must be a positive integer", ctx.FullPath())
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	briefings, err := bc.Service.ListByUser(ctx.Request.Context(), userID, limit)
	if err != nil {
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to list briefings", ctx.FullPath())
		return
	}

	ctx.JSON(http.StatusOK, schemas.BriefingListResponse{
		Briefings: briefings,
		Count:     len(briefings),
	})
}

// Statistics handles GET /briefings/stats?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (bc *BriefingController) Statistics(ctx *gin.Context) {
	from := ctx.Query("from")
	to := ctx.Query("to")

	stats, err := bc.Service.Statistics(ctx.Request.Context(), from, to)
	if err != nil {
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to compute statistics", ctx.FullPath())
		return
	}

	ctx.JSON(http.StatusOK, schemas.BriefingStatsResponse{
		Total:        stats.Total,
		ByDepartment: toStatsGroups(stats.ByDepartment),
		ByDate:       toStatsGroups(stats.ByDate),
	})
}

func toStatsGroups(groups []repository.CountByGroup) []schemas.StatsGroup {
	out := make([]schemas.StatsGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, schemas.StatsGroup{Group: g.Group, Count: g.Count})
	}
	return out
}

// ExportCSV handles GET /briefings/export?from=...&to=... and streams
// the rows as a CSV attachment.
func (bc *BriefingController) ExportCSV(ctx *gin.Context) {
	from := ctx.Query("from")
	to := ctx.Query("to")

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", `attachment; filename="briefings.csv"`)

	rows, err := bc.Service.ExportCSV(ctx.Request.Context(), ctx.Writer, from, to)
	if err != nil {
		// Headers may already be on the wire; log and abort.
		bc.Log.WithError(err).Error("csv export failed")
		ctx.Abort()
		return
	}

	bc.Log.WithField("rows", rows).Info("csv export completed")
}

// TextReport handles GET /briefings/:id/report.
func (bc *BriefingController) TextReport(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendError(ctx, http.StatusBadRequest, "Bad Request",
			"id must be a positive integer", ctx.FullPath())
		return
	}

	report, err := bc.Service.TextReport(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrBriefingNotFound) {
			utils.SendError(ctx, http.StatusNotFound, "Not Found",
				"briefing not found", ctx.FullPath())
			return
		}
		utils.SendError(ctx, http.StatusInternalServerError, "Internal Server Error",
			"failed to render report", ctx.FullPath())
		return
	}

	ctx.JSON(http.StatusOK, schemas.TextReportResponse{ID: id, Report: report})
}
