package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/frontdesk/internal/authorization"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
)

type createReservationRequest struct {
	GuestName    string `json:"guest_name" binding:"required"`
	RoomTypeID   string `json:"room_type_id" binding:"required"`
	CheckIn      string `json:"check_in" binding:"required"`
	CheckOut     string `json:"check_out" binding:"required"`
	Status       string `json:"status"`
	AutoAllocate bool   `json:"auto_allocate"`
}

func (s *Server) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reservationSvc.Create(c.Request.Context(), reservationdomain.CreateReservationRequest{
		GuestName:    strings.TrimSpace(req.GuestName),
		RoomTypeID:   strings.TrimSpace(req.RoomTypeID),
		CheckIn:      stay.Start,
		CheckOut:     stay.End,
		Status:       reservationdomain.Status(strings.TrimSpace(req.Status)),
		AutoAllocate: req.AutoAllocate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordReservationActivity(c, authorization.ActionReservationCreate, resp)

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetReservation(c *gin.Context) {
	resp, err := s.reservationSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckInReservation(c *gin.Context) {
	resp, err := s.reservationSvc.CheckIn(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordReservationActivity(c, authorization.ActionReservationCheckIn, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckOutReservation(c *gin.Context) {
	resp, err := s.reservationSvc.CheckOut(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordReservationActivity(c, authorization.ActionReservationCheckOut, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelReservation(c *gin.Context) {
	resp, err := s.reservationSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordReservationActivity(c, authorization.ActionReservationCancel, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) recordReservationActivity(c *gin.Context, action string, resp reservationdomain.Reservation) {
	s.recordActivity(c.Request.Context(), action, authorization.ObjectReservation, resp.ID.String(), map[string]any{
		"status": string(resp.Status),
	})
}
