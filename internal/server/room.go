package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/frontdesk/internal/authorization"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
)

type createRoomTypeRequest struct {
	Code        string          `json:"code" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
	Currency    string          `json:"currency"`
}

type createRoomRequest struct {
	RoomTypeID string `json:"room_type_id" binding:"required"`
	Number     int    `json:"number" binding:"required"`
}

// Omitted fields keep their current value. Block dates are "2006-01-02".
type updateHousekeepingRequest struct {
	IsClean   *bool   `json:"is_clean"`
	IsBlocked *bool   `json:"is_blocked"`
	BlockFrom *string `json:"block_from"`
	BlockTo   *string `json:"block_to"`
}

func (s *Server) ListRoomTypes(c *gin.Context) {
	resp, err := s.roomSvc.ListRoomTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateRoomType(c *gin.Context) {
	var req createRoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.roomSvc.CreateRoomType(c.Request.Context(), roomdomain.CreateRoomTypeRequest{
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		NightlyRate: req.NightlyRate,
		Currency:    strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordActivity(c.Request.Context(), authorization.ActionRoomManage, "room_type", resp.ID.String(), map[string]any{
		"code": resp.Code,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListRooms(c *gin.Context) {
	resp, err := s.roomSvc.ListRooms(c.Request.Context(), strings.TrimSpace(c.Query("room_type_id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.roomSvc.CreateRoom(c.Request.Context(), roomdomain.CreateRoomRequest{
		RoomTypeID: strings.TrimSpace(req.RoomTypeID),
		Number:     req.Number,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordActivity(c.Request.Context(), authorization.ActionRoomManage, authorization.ObjectRoom, resp.ID.String(), map[string]any{
		"number": resp.Number,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateHousekeeping(c *gin.Context) {
	var req updateHousekeepingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	blockFrom, err := parseOptionalDay(req.BlockFrom)
	if err != nil {
		AbortWithError(c, newValidationError("block_from", "invalid_block_from", "block_from must be YYYY-MM-DD"))
		return
	}
	blockTo, err := parseOptionalDay(req.BlockTo)
	if err != nil {
		AbortWithError(c, newValidationError("block_to", "invalid_block_to", "block_to must be YYYY-MM-DD"))
		return
	}

	resp, err := s.roomSvc.UpdateHousekeeping(c.Request.Context(), roomdomain.UpdateHousekeepingRequest{
		RoomID:    strings.TrimSpace(c.Param("id")),
		IsClean:   req.IsClean,
		IsBlocked: req.IsBlocked,
		BlockFrom: blockFrom,
		BlockTo:   blockTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordActivity(c.Request.Context(), authorization.ActionRoomHousekeeping, authorization.ObjectRoom, resp.ID.String(), map[string]any{
		"is_clean":   resp.IsClean,
		"is_blocked": resp.IsBlocked,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalDay(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	day, err := daterange.Parse(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &day, nil
}
