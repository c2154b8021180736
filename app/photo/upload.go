package photo

import (
	"errors"
	"net/http"

	"designerdada/photo-api/internal"
	"designerdada/photo-api/internal/service"
	"designerdada/photo-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Upload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body size exceeds limit",
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing file or metadata",
		})
		return
	}

	metadata := c.PostForm("metadata")
	if metadata == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing file or metadata",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer file.Close()

	photo, err := d.Photos.Create(c.Request.Context(), &service.Upload{
		Body:        file,
		Size:        fileHeader.Size,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Metadata:    metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingInput), errors.Is(err, validators.ErrNoFile):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Missing file or metadata",
			})
		case errors.Is(err, validators.ErrInvalidMetadata):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, validators.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "File too large",
			})
		case errors.Is(err, validators.ErrFileTypeUnsupported):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unsupported file type",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})

			zap.L().Error("Failed to create photo", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	zap.L().Info("Photo created", zap.String("id", photo.ID), zap.String("requestID", requestID))

	c.JSON(http.StatusCreated, gin.H{
		"photo": photo,
	})
}
