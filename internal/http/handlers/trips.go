package handlers

import (
	"net/http"

	"charter/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTrips(c *gin.Context) {
	list, err := h.tripService(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": list})
}

func (h *Handler) CreateTrip(c *gin.Context) {
	var in services.TripInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := h.tripService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTrip(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.tripService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTrip(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.TripInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := h.tripService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) ListDepartures(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	deps, err := h.tripService(c).ListDepartures(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departures": deps})
}

func (h *Handler) AddDeparture(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.DepartureInput
	if !BindJSONOrError(c, &in) {
		return
	}
	d, err := h.tripService(c).AddDeparture(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDeparture(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	depID, ok := idParam(c, "depId")
	if !ok {
		return
	}
	var in services.DepartureInput
	if !BindJSONOrError(c, &in) {
		return
	}
	d, err := h.tripService(c).UpdateDeparture(c.Request.Context(), id, depID, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDeparture(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	depID, ok := idParam(c, "depId")
	if !ok {
		return
	}
	if err := h.tripService(c).DeleteDeparture(c.Request.Context(), id, depID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RebuildDepartureCaches runs the same rebuild as the periodic job.
func (h *Handler) RebuildDepartureCaches(c *gin.Context) {
	if err := h.tripService(c).RebuildAllCaches(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PublicTrips is the widget feed.
func (h *Handler) PublicTrips(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	trips, err := h.tripService(c).PublicTrips(c.Request.Context(), limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=60")
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

type availabilityQuery struct {
	Date string `form:"date" binding:"required,isodate"`
}

func (h *Handler) Availability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD")
		return
	}
	av, err := h.capacityService(c).Lookup(c.Request.Context(), id, q.Date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}
