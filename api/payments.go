package api

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/service/reservation"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	service  reservation.ReservationUseCase
	receipts ReceiptReader
}

type ReceiptReader interface {
	Open(rel string) (*os.File, error)
}

type paymentResponse struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Amount       string `json:"amount"`
	ReceiptPath  string `json:"receipt_path"`
	TicketNumber int    `json:"ticket_number"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func NewPaymentHandler(service reservation.ReservationUseCase, receipts ReceiptReader) *PaymentHandler {
	return &PaymentHandler{service: service, receipts: receipts}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.submit)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/receipt", h.receipt)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

func (h *PaymentHandler) submit(c *gin.Context) {
	amount, number, err := parsePaymentForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	receipt, closeReceipt, err := readReceipt(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeReceipt()

	payment, err := h.service.SubmitPayment(c.Request.Context(), requestFrom(c), reservation.SubmitPaymentInput{
		Amount:       amount,
		TicketNumber: number,
		Receipt:      receipt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPaymentResponse(payment))
}

func (h *PaymentHandler) update(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	amount, number, err := parsePaymentForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	receipt, closeReceipt, err := readReceipt(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeReceipt()

	payment, err := h.service.UpdatePayment(c.Request.Context(), requestFrom(c), id, reservation.UpdatePaymentInput{
		Amount:       amount,
		TicketNumber: number,
		Receipt:      receipt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPaymentResponse(payment))
}

func (h *PaymentHandler) delete(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.service.DeletePayment(c.Request.Context(), requestFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) get(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	payment, err := h.service.GetPayment(c.Request.Context(), requestFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPaymentResponse(payment))
}

// receipt streams the stored receipt image to the owner or an admin.
func (h *PaymentHandler) receipt(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	payment, err := h.service.GetPayment(c.Request.Context(), requestFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	file, err := h.receipts.Open(payment.ReceiptPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		respondError(c, err)
		return
	}
	http.ServeContent(c.Writer, c.Request, path.Base(payment.ReceiptPath), info.ModTime(), file)
}

func (h *PaymentHandler) list(c *gin.Context) {
	status := domain.PaymentStatus(strings.ToUpper(c.Query("status")))
	if status != "" && status != domain.PaymentStatusPending && !status.Decision() {
		respondError(c, domain.NewValidationError("status", "status must be PENDING, APPROVED or REJECTED"))
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), requestFrom(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, newPaymentResponse(&payments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payments": resp})
}

func parsePaymentForm(c *gin.Context) (decimal.Decimal, int, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("amount")))
	if err != nil {
		return decimal.Zero, 0, domain.NewValidationError("amount", "amount must be a number")
	}
	number, err := strconv.Atoi(strings.TrimSpace(c.PostForm("ticket_number")))
	if err != nil {
		return decimal.Zero, 0, domain.NewValidationError("ticket_number", "ticket number must be an integer")
	}
	return amount, number, nil
}

// readReceipt opens the optional "receipt" upload. The content type is
// sniffed from the file itself rather than trusted from the client.
func readReceipt(c *gin.Context) (*domain.Receipt, func(), error) {
	noop := func() {}
	header, err := c.FormFile("receipt")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, domain.NewValidationError("receipt", "receipt upload could not be read")
	}
	return openReceipt(header)
}

func openReceipt(header *multipart.FileHeader) (*domain.Receipt, func(), error) {
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, domain.NewValidationError("receipt", "receipt upload could not be read")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, func() {}, domain.NewValidationError("receipt", "receipt upload could not be read")
	}
	head = head[:n]

	return &domain.Receipt{
		Name:        header.Filename,
		ContentType: http.DetectContentType(head),
		Size:        header.Size,
		Body:        io.MultiReader(bytes.NewReader(head), file),
	}, func() { file.Close() }, nil
}

func newPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Amount:       p.Amount.StringFixed(2),
		ReceiptPath:  p.ReceiptPath,
		TicketNumber: p.TicketNumber,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}
