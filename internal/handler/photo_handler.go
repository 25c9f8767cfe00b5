package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glowtrack/glowtrack-api/internal/dto"
	"github.com/glowtrack/glowtrack-api/internal/models"
	"github.com/glowtrack/glowtrack-api/internal/service"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
	"github.com/glowtrack/glowtrack-api/pkg/response"
	"github.com/glowtrack/glowtrack-api/pkg/storage"
)

type photoFileResolver interface {
	Abs(rel string) (string, error)
	Rel(path string) (string, error)
	StorageInfo() (models.StorageInfo, error)
}

// PhotoHandler exposes the photo lifecycle endpoints.
type PhotoHandler struct {
	photos  *service.PhotoService
	capture *service.CaptureService
	cleanup *service.CleanupService
	files   photoFileResolver
	signer  *storage.SignedURLSigner
}

// NewPhotoHandler constructs PhotoHandler.
func NewPhotoHandler(photos *service.PhotoService, capture *service.CaptureService, cleanup *service.CleanupService, files photoFileResolver, signer *storage.SignedURLSigner) *PhotoHandler {
	return &PhotoHandler{photos: photos, capture: capture, cleanup: cleanup, files: files, signer: signer}
}

// Capture godoc
// @Summary Capture a photo
// @Tags Photos
// @Accept mpfd
// @Produce json
// @Param photo formData file true "JPEG or PNG image"
// @Success 201 {object} response.Envelope
// @Router /photos [post]
func (h *PhotoHandler) Capture(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo file is required"))
		return
	}
	defer file.Close()

	result, err := h.capture.Capture(c.Request.Context(), claims.UserID, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List photos
// @Tags Photos
// @Produce json
// @Param date query string false "Single day (YYYY-MM-DD)"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Param limit query int false "Most recent N photos"
// @Success 200 {object} response.Envelope
// @Router /photos [get]
func (h *PhotoHandler) List(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	if day := c.Query("date"); day != "" {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		response.JSON(c, http.StatusOK, h.photos.ByDate(claims.UserID, date), nil)
		return
	}

	from, to := c.Query("from"), c.Query("to")
	if from != "" || to != "" {
		start, err := parseTimeOr(from, time.Time{})
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339"))
			return
		}
		end, err := parseTimeOr(to, time.Now())
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339"))
			return
		}
		response.JSON(c, http.StatusOK, h.photos.ByDateRange(claims.UserID, start, end), nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	response.JSON(c, http.StatusOK, h.photos.CachedRecent(c.Request.Context(), claims.UserID, limit), nil)
}

// Get godoc
// @Summary Get one photo
// @Tags Photos
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Envelope
// @Router /photos/{id} [get]
func (h *PhotoHandler) Get(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	photo, found := h.photos.Get(c.Param("id"))
	if !found || photo.UserID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
		return
	}
	response.JSON(c, http.StatusOK, photo, nil)
}

// Update godoc
// @Summary Patch photo fields
// @Tags Photos
// @Accept json
// @Produce json
// @Param id path string true "Photo ID"
// @Param payload body dto.UpdatePhotoRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /photos/{id} [patch]
func (h *PhotoHandler) Update(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	id := c.Param("id")
	photo, found := h.photos.Get(id)
	if !found || photo.UserID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
		return
	}

	var req dto.UpdatePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.photos.Update(c.Request.Context(), id, req.ToUpdate()); err != nil {
		response.Error(c, err)
		return
	}

	updated, _ := h.photos.Get(id)
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete a photo
// @Tags Photos
// @Param id path string true "Photo ID"
// @Success 204
// @Router /photos/{id} [delete]
func (h *PhotoHandler) Delete(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if photo, found := h.photos.Get(id); found && photo.UserID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
		return
	}
	if err := h.photos.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SignedURL godoc
// @Summary Generate a signed artifact download link
// @Tags Photos
// @Produce json
// @Param id path string true "Photo ID"
// @Param quality query string false "original|compressed|thumbnail"
// @Success 200 {object} response.Envelope
// @Router /photos/{id}/url [get]
func (h *PhotoHandler) SignedURL(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	photo, found := h.photos.Get(c.Param("id"))
	if !found || photo.UserID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
		return
	}

	quality := models.ArtifactQuality(c.DefaultQuery("quality", string(models.ArtifactCompressed)))
	path := photo.Paths.ForQuality(quality)
	rel, err := h.files.Rel(path)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, expiresAt, err := h.signer.Generate(photo.ID, rel)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign url"))
		return
	}
	response.JSON(c, http.StatusOK, dto.SignedURLResponse{
		URL:       "/files?token=" + token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil)
}

// Download serves an artifact referenced by a signed token. It requires no
// bearer token; the HMAC signature is the authorization.
func (h *PhotoHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	photoID, rel, _, err := h.signer.Parse(token)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired link"))
		return
	}
	if _, found := h.photos.Get(photoID); !found {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
		return
	}
	abs, err := h.files.Abs(rel)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid artifact path"))
		return
	}
	c.File(abs)
}

// Stats godoc
// @Summary Storage statistics from the photo store
// @Tags Storage
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /storage/stats [get]
func (h *PhotoHandler) Stats(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.photos.CachedStats(c.Request.Context()), nil)
}

// StorageInfo godoc
// @Summary Disk-side storage usage
// @Tags Storage
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /storage/info [get]
func (h *PhotoHandler) StorageInfo(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		return
	}
	info, err := h.files.StorageInfo()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Cleanup godoc
// @Summary Run the storage cleanup immediately
// @Tags Storage
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /storage/cleanup [post]
func (h *PhotoHandler) Cleanup(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		return
	}
	result, err := h.cleanup.RunNow(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func parseTimeOr(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}
