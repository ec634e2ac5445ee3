package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/service/tickets"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service tickets.TicketUseCase
}

type ticketResponse struct {
	Number     int     `json:"number"`
	Status     string  `json:"status"`
	OwnerID    *int64  `json:"owner_id,omitempty"`
	PaymentID  *int64  `json:"payment_id,omitempty"`
	ReservedAt *string `json:"reserved_at,omitempty"`
}

func NewTicketHandler(service tickets.TicketUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.board)
	router.GET("/mine", h.mine)
	router.GET("/:number", h.availability)
}

func (h *TicketHandler) board(c *gin.Context) {
	cursor, err := queryInt(c, "cursor")
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.service.Board(c.Request.Context(), cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TicketHandler) availability(c *gin.Context) {
	number, err := pathInt(c, "number")
	if err != nil {
		respondError(c, err)
		return
	}

	availability, err := h.service.Availability(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *TicketHandler) mine(c *gin.Context) {
	owned, err := h.service.MyTickets(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]ticketResponse, 0, len(owned))
	for _, t := range owned {
		resp = append(resp, newTicketResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": resp})
}

func newTicketResponse(t domain.Ticket) ticketResponse {
	resp := ticketResponse{
		Number:    t.Number,
		Status:    string(t.Status),
		OwnerID:   t.OwnerID,
		PaymentID: t.PaymentID,
	}
	if t.ReservedAt != nil {
		reservedAt := t.ReservedAt.Format(time.RFC3339)
		resp.ReservedAt = &reservedAt
	}
	return resp
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}
