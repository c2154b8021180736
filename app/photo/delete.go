package photo

import (
	"errors"
	"net/http"

	"designerdada/photo-api/internal"
	"designerdada/photo-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Delete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	err := d.Photos.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingID):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Missing photo ID",
			})
		case errors.Is(err, service.ErrPhotoNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Photo not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})

			zap.L().Error("Failed to delete photo", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// MissingID answers DELETE /api/photos/ which carries no id segment
func MissingID(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Missing photo ID",
	})
}
