package handlers

import (
	"io"
	"net/http"

	"charter/internal/services"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = 1 << 16

// Checkout starts a hosted payment for seats on a catalog trip.
func (h *Handler) Checkout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.CheckoutInput
	if !bindJSONOrForm(c, &in) {
		return
	}
	res, err := h.ticketService(c).StartCheckout(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// StripeWebhook needs the raw body: the signature covers the exact bytes.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "read_error", "could not read body")
		return
	}
	if err := h.ticketService(c).HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) TicketPDF(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	data, name, err := h.docsService(c).ETicket(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, name)
}
