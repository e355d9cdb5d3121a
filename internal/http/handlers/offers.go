package handlers

import (
	"net/http"
	"strings"

	"charter/internal/domain/models"
	"charter/internal/services"

	"github.com/gin-gonic/gin"
)

// SubmitOffer is the public intake form. It accepts JSON or a form post.
func (h *Handler) SubmitOffer(c *gin.Context) {
	var in services.OfferInput
	if !bindJSONOrForm(c, &in) {
		return
	}
	o, err := h.offerService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": o.ID, "offer_number": o.OfferNumber, "status": o.Status})
}

func (h *Handler) ListOffers(c *gin.Context) {
	page, ok := pagination(c)
	if !ok {
		return
	}
	page = page.Normalize(50, 200)
	list, err := h.offerService(c).List(c.Request.Context(), models.OfferFilter{
		Status: c.Query("status"),
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": list, "page": page.Page, "page_size": page.PageSize})
}

func (h *Handler) CreateOffer(c *gin.Context) {
	var in services.OfferInput
	if !BindJSONOrError(c, &in) {
		return
	}
	o, err := h.offerService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.offerService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) UpdateOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.OfferInput
	if !BindJSONOrError(c, &in) {
		return
	}
	o, err := h.offerService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) SendOfferProposal(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.ProposalInput
	if !BindJSONOrError(c, &in) {
		return
	}
	o, err := h.offerService(c).SendProposal(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type acceptOfferRequest struct {
	CreateBooking bool `json:"create_booking"`
}

func (h *Handler) AcceptOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req acceptOfferRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	o, b, err := h.offerService(c).Accept(c.Request.Context(), id, req.CreateBooking)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": o, "booking": b})
}

func (h *Handler) CancelOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.offerService(c).Cancel(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) SetOfferStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	o, err := h.offerService(c).Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type offerTokenRequest struct {
	Token string `json:"token" form:"token"`
}

func offerToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	var req offerTokenRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBind(&req)
	}
	return req.Token
}

// ViewOfferByToken serves the customer's offer page data.
func (h *Handler) ViewOfferByToken(c *gin.Context) {
	o, err := h.offerService(c).ViewByToken(c.Request.Context(), offerToken(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicOffer(o))
}

func (h *Handler) AcceptOfferByToken(c *gin.Context) {
	o, err := h.offerService(c).AcceptByToken(c.Request.Context(), offerToken(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicOffer(o))
}

// publicOffer leaves out internal notes.
func publicOffer(o models.Offer) models.Offer {
	o.Notes = ""
	return o
}

func (h *Handler) OfferPDF(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	data, name, err := h.docsService(c).OfferProposal(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, name)
}
