package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/smallbiznis/frontdesk/internal/allocation/domain"
)

type allocateRoomRequest struct {
	RoomTypeID           string `json:"room_type_id" binding:"required"`
	CheckIn              string `json:"check_in" binding:"required"`
	CheckOut             string `json:"check_out" binding:"required"`
	ExcludeReservationID string `json:"exclude_reservation_id"`
}

// AllocateRoom suggests a physical room. Running out of rooms answers 200
// with allocated=false so callers can fall back to a waitlist.
func (s *Server) AllocateRoom(c *gin.Context) {
	var req allocateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	roomTypeID, err := parseOptionalSnowflakeID(req.RoomTypeID)
	if err != nil || roomTypeID == 0 {
		AbortWithError(c, newValidationError("room_type_id", "invalid_room_type_id", "invalid room_type_id"))
		return
	}
	excludeID, err := parseOptionalSnowflakeID(req.ExcludeReservationID)
	if err != nil {
		AbortWithError(c, newValidationError("exclude_reservation_id", "invalid_exclude_reservation_id", "invalid exclude_reservation_id"))
		return
	}
	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	room, ok, err := s.allocationSvc.Allocate(c.Request.Context(), allocationdomain.AllocateRequest{
		RoomTypeID:           roomTypeID,
		Stay:                 stay,
		ExcludeReservationID: excludeID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"allocated": false, "room": nil}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"allocated": true, "room": room}})
}
