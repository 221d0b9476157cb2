package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
)

type availabilityQuery struct {
	RoomTypeID string `form:"room_type_id"`
	From       string `form:"from" binding:"required"`
	To         string `form:"to" binding:"required"`
	Detail     string `form:"detail"`
}

// GetAvailability answers with room type id -> day -> sellable rooms. With a
// room type and detail=true it returns the per-day breakdown instead.
func (s *Server) GetAvailability(c *gin.Context) {
	var query availabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	interval, err := parseInterval(query.From, query.To)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	roomTypeID, err := parseOptionalSnowflakeID(query.RoomTypeID)
	if err != nil {
		AbortWithError(c, newValidationError("room_type_id", "invalid_room_type_id", "invalid room_type_id"))
		return
	}
	detail, err := parseOptionalBool(query.Detail)
	if err != nil {
		AbortWithError(c, newValidationError("detail", "invalid_detail", "detail must be a boolean"))
		return
	}

	ctx := c.Request.Context()
	if roomTypeID == 0 {
		counts, err := s.availabilitySvc.CountAll(ctx, interval)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		out := make(map[string]availabilitydomain.DailyCounts, len(counts))
		for id, daily := range counts {
			out[id.String()] = daily
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
		return
	}

	if detail != nil && *detail {
		days, err := s.availabilitySvc.Breakdown(ctx, roomTypeID, interval)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": days})
		return
	}

	counts, err := s.availabilitySvc.CountAvailable(ctx, roomTypeID, interval)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": map[string]availabilitydomain.DailyCounts{roomTypeID.String(): counts}})
}
