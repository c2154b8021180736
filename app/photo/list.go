// Package photo contains the gallery endpoints
package photo

import (
	"errors"
	"net/http"

	"designerdada/photo-api/internal"
	"designerdada/photo-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func List(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	photos, err := d.Photos.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid category",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})

		zap.L().Error("Failed to list photos", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"photos": photos,
	})
}
