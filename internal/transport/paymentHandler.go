package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/hotel-booking/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePayment выпускает платёж и возвращает платёжный URL
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}
	req.IPAddress = c.ClientIP()

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, payment)
}

// queryParams собирает все query-параметры callback-а в плоскую карту
func queryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// HandleReturn обрабатывает возврат пользователя с платёжной страницы
func (h *PaymentHandler) HandleReturn(c *gin.Context) {
	result, err := h.paymentService.HandleReturn(c.Request.Context(), queryParams(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result)
}

// HandleIPN обрабатывает server-to-server уведомление процессора.
// Ответ всегда 200: исход выражается кодом в теле, иначе процессор
// не прекратит повторную доставку.
func (h *PaymentHandler) HandleIPN(c *gin.Context) {
	resp := h.paymentService.HandleIPN(c.Request.Context(), queryParams(c))
	c.JSON(http.StatusOK, resp)
}

// Refund выполняет возврат платежа через API процессора
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid payment id"})
		return
	}

	var req service.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}
	req.PaymentID = id
	req.IPAddress = c.ClientIP()
	if req.CreateBy == "" {
		req.CreateBy = "system"
	}

	payment, err := h.paymentService.Refund(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, payment)
}

// GetPayment возвращает платёж по ID
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid payment id"})
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, payment)
}

// QueryPayment запрашивает актуальное состояние платежа у процессора,
// не меняя локальное
func (h *PaymentHandler) QueryPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid payment id"})
		return
	}

	view, err := h.paymentService.QueryPayment(c.Request.Context(), id, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, view)
}
