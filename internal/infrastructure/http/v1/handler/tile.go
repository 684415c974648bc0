package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tileproxy/internal/compose"
	"tileproxy/internal/fetch"
	"tileproxy/internal/registry"
	"tileproxy/internal/translate"
	"tileproxy/internal/usecase"
	"tileproxy/pkg/logger"
	"tileproxy/pkg/metrics"
)

func (h *Handler) Tile(c *gin.Context) {
	l := logger.FromContext(c.Request.Context())

	mapID := c.Param("map")
	strZ := c.Param("z")
	strX := c.Param("x")
	strY := c.Param("y")

	z, err := strconv.Atoi(strZ)
	if err != nil {
		l.Warn("invalid z parameter", "z", strZ, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "z should be integer",
		})
		return
	}

	x, err := strconv.Atoi(strX)
	if err != nil {
		l.Warn("invalid x parameter", "x", strX, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "x should be integer",
		})
		return
	}

	y, err := strconv.Atoi(strY)
	if err != nil {
		l.Warn("invalid y parameter", "y", strY, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "y should be integer",
		})
		return
	}

	key := usecase.TileKey{Map: mapID, Z: z, X: x, Y: y}

	tile, err := h.tileUseCase.GetTile(c.Request.Context(), key)
	if err != nil {
		status, kind := statusForError(err)
		metrics.TileErrors.WithLabelValues(kind).Inc()
		l.Error("failed to get tile", "key", key.String(), "kind", kind, "error", err)
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.Data(http.StatusOK, "image/"+tile.Format, tile.Data)
}

// statusForError maps the failure taxonomy onto HTTP statuses: configuration
// problems are the client's fault (400/404), everything coming back broken
// from upstream is a gateway error (502/504).
func statusForError(err error) (int, string) {
	var upstreamErr *fetch.UpstreamError

	switch {
	case errors.Is(err, registry.ErrMapNotFound):
		return http.StatusNotFound, "map_not_found"
	case errors.Is(err, translate.ErrConfig):
		return http.StatusBadRequest, "configuration"
	case errors.As(err, &upstreamErr):
		if upstreamErr.Timeout {
			return http.StatusGatewayTimeout, "upstream_timeout"
		}
		return http.StatusBadGateway, "upstream"
	case errors.Is(err, fetch.ErrDecode):
		return http.StatusBadGateway, "decode"
	case errors.Is(err, compose.ErrDimensionMismatch):
		return http.StatusBadGateway, "dimension_mismatch"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
