package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service reservation.ReservationUseCase
}

type resolvePaymentRequest struct {
	Status string `json:"status"`
}

type assignTicketsRequest struct {
	Numbers []int `json:"numbers"`
}

func NewAdminHandler(service reservation.ReservationUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/payments/:id/resolve", h.resolve)
	router.POST("/users/:id/tickets", h.assign)
	router.POST("/tickets/:number/reject", h.reject)
}

// requireAdmin rejects non-admin callers before any body is parsed.
func requireAdmin(c *gin.Context) bool {
	if domain.CanResolvePayments(actorFrom(c)) {
		return true
	}
	respondError(c, domain.ErrForbidden)
	return false
}

func (h *AdminHandler) resolve(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req resolvePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision := domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	payment, err := h.service.ResolvePayment(c.Request.Context(), requestFrom(c), id, decision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPaymentResponse(payment))
}

func (h *AdminHandler) assign(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	userID, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req assignTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assigned, err := h.service.AssignTickets(c.Request.Context(), requestFrom(c), userID, req.Numbers)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]ticketResponse, 0, len(assigned))
	for _, t := range assigned {
		resp = append(resp, newTicketResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": resp})
}

func (h *AdminHandler) reject(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	number, err := pathInt(c, "number")
	if err != nil {
		respondError(c, err)
		return
	}

	ticket, err := h.service.RejectTicket(c.Request.Context(), requestFrom(c), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTicketResponse(*ticket))
}
