package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hendrik2009/hearo-backend/internal/app/model"
	"github.com/hendrik2009/hearo-backend/internal/app/service"
	apperrors "github.com/hendrik2009/hearo-backend/internal/errors"
	"github.com/hendrik2009/hearo-backend/internal/middleware"
)

type BindingController struct {
	bindingService service.BindingService
	exportService  service.ExportService
}

func NewBindingController(bindingService service.BindingService, exportService service.ExportService) *BindingController {
	return &BindingController{
		bindingService: bindingService,
		exportService:  exportService,
	}
}

// UpsertBindingRequest is the body of PUT /bindings/:uid. Omitted track
// and position default to the unplayed checkpoint, matching the store's
// overwrite-not-merge contract.
type UpsertBindingRequest struct {
	PlaylistURI  string `json:"playlist_uri"`
	LastTrackURI string `json:"last_track_uri"`
	LastPosMS    int64  `json:"last_pos_ms"`
}

// SeedRequest is the body of POST /bindings/seed
type SeedRequest struct {
	Bindings []UpsertBindingRowRequest `json:"bindings"`
}

type UpsertBindingRowRequest struct {
	UID          string `json:"uid"`
	PlaylistURI  string `json:"playlist_uri"`
	LastTrackURI string `json:"last_track_uri"`
	LastPosMS    int64  `json:"last_pos_ms"`
}

// GetBinding resolves one tag
// GET /api/v1/bindings/:uid
func (ctrl *BindingController) GetBinding(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	uid := c.Param("uid")

	binding, err := ctrl.bindingService.GetBinding(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, service.ErrBindingNotFound) {
			apperrors.NotFound(c, apperrors.BindingNotFound, "No binding exists for this tag")
			return
		}
		if errors.Is(err, service.ErrEmptyUID) {
			apperrors.BadRequest(c, apperrors.BindingInvalidUID, "A tag UID is required")
			return
		}
		log.Error("Failed to resolve binding", err, map[string]interface{}{
			"uid": uid,
		})
		info := apperrors.ParseError(err, "resolve binding")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"binding": binding,
	})
}

// UpsertBinding registers, reassigns, or checkpoints a tag
// PUT /api/v1/bindings/:uid
func (ctrl *BindingController) UpsertBinding(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	uid := c.Param("uid")

	var req UpsertBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	binding, err := ctrl.bindingService.UpsertBinding(
		c.Request.Context(), uid, req.PlaylistURI, req.LastTrackURI, req.LastPosMS)
	if err != nil {
		if respondBindingValidation(c, err) {
			return
		}
		log.Error("Failed to upsert binding", err, map[string]interface{}{
			"uid": uid,
		})
		info := apperrors.ParseError(err, "upsert binding")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	log.Info("Binding written", map[string]interface{}{
		"uid":          binding.UID,
		"playlist_uri": binding.PlaylistURI,
	})

	c.JSON(http.StatusOK, gin.H{
		"binding": binding,
	})
}

// ListBindings lists all bindings, or those bound to one playlist
// GET /api/v1/bindings
// Query params:
//   - playlist_uri: reverse lookup (optional)
func (ctrl *BindingController) ListBindings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	playlistURI := c.Query("playlist_uri")

	var bindings []model.TagBinding
	var err error

	if playlistURI != "" {
		bindings, err = ctrl.bindingService.ListByPlaylist(playlistURI)
	} else {
		bindings, err = ctrl.bindingService.ListBindings()
	}

	if err != nil {
		log.Error("Failed to list bindings", err, map[string]interface{}{
			"playlist_uri": playlistURI,
		})
		info := apperrors.ParseError(err, "list bindings")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bindings": bindings,
		"count":    len(bindings),
	})
}

// GetStats reports row count and the most recent write
// GET /api/v1/bindings/stats
func (ctrl *BindingController) GetStats(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.bindingService.Stats()
	if err != nil {
		log.Error("Failed to read binding stats", err)
		apperrors.InternalError(c, "Failed to read binding stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}

// SeedBindings applies a batch of bindings as one transaction
// POST /api/v1/bindings/seed
func (ctrl *BindingController) SeedBindings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	bindings := make([]model.TagBinding, 0, len(req.Bindings))
	for _, row := range req.Bindings {
		bindings = append(bindings, model.TagBinding{
			UID:          row.UID,
			PlaylistURI:  row.PlaylistURI,
			LastTrackURI: row.LastTrackURI,
			LastPosMS:    row.LastPosMS,
		})
	}

	seeded, err := ctrl.bindingService.SeedBatch(c.Request.Context(), bindings)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBatch) {
			apperrors.BadRequest(c, apperrors.ValidationRequired, "The seed batch is empty")
			return
		}
		if respondBindingValidation(c, err) {
			return
		}
		log.Error("Failed to apply seed batch", err, map[string]interface{}{
			"count": len(bindings),
		})
		info := apperrors.ParseError(err, "seed bindings")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	log.Info("Seed batch applied", map[string]interface{}{
		"seeded": seeded,
	})

	c.JSON(http.StatusOK, gin.H{
		"seeded": seeded,
	})
}

// ExportBindings downloads the binding table as an xlsx workbook
// GET /api/v1/bindings/export
func (ctrl *BindingController) ExportBindings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	payload, err := ctrl.exportService.ExportWorkbook()
	if err != nil {
		log.Error("Failed to export bindings", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.ExportFailed, "Failed to export bindings")
		return
	}

	filename := fmt.Sprintf("hearo-tags-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", payload)
}

// respondBindingValidation writes a 400 for the service's validation
// sentinels and reports whether it handled the error
func respondBindingValidation(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrEmptyUID):
		apperrors.BadRequest(c, apperrors.BindingInvalidUID, "A tag UID is required")
	case errors.Is(err, service.ErrEmptyPlaylistURI):
		apperrors.BadRequest(c, apperrors.BindingInvalidPlaylist, "A playlist URI is required")
	case errors.Is(err, service.ErrNegativePosition):
		apperrors.BadRequest(c, apperrors.BindingInvalidPosition, "The position must not be negative")
	default:
		return false
	}
	return true
}
