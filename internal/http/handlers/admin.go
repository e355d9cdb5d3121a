package handlers

import (
	"net/http"

	"charter/internal/http/middleware"
	"charter/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) agreementService(c *gin.Context) services.AgreementService {
	return services.AgreementService{Agreements: h.Agreements, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) priceProfileService(c *gin.Context) services.PriceProfileService {
	return services.PriceProfileService{
		Profiles:       h.Profiles,
		DefaultVATRate: h.Env.Pricing.PassengerVATRate,
		RequestID:      middleware.GetRequestID(c),
	}
}

func (h *Handler) ListAgreements(c *gin.Context) {
	list, err := h.agreementService(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agreements": list})
}

func (h *Handler) CreateAgreement(c *gin.Context) {
	var in services.AgreementInput
	if !BindJSONOrError(c, &in) {
		return
	}
	a, err := h.agreementService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAgreement(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.agreementService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAgreement(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.AgreementInput
	if !BindJSONOrError(c, &in) {
		return
	}
	a, err := h.agreementService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) AgreementPDF(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	data, name, err := h.docsService(c).Agreement(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, name)
}

func (h *Handler) ListPriceProfiles(c *gin.Context) {
	list, err := h.priceProfileService(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price_profiles": list})
}

func (h *Handler) CreatePriceProfile(c *gin.Context) {
	var in services.PriceProfileInput
	if !BindJSONOrError(c, &in) {
		return
	}
	p, err := h.priceProfileService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPriceProfile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.priceProfileService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePriceProfile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.PriceProfileInput
	if !BindJSONOrError(c, &in) {
		return
	}
	p, err := h.priceProfileService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) EstimatePrice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.EstimateInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.priceProfileService(c).Estimate(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
