package handlers

import (
	"net/http"
	"strings"

	"charter/internal/domain/models"
	"charter/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListBookings(c *gin.Context) {
	page, ok := pagination(c)
	if !ok {
		return
	}
	page = page.Normalize(50, 200)
	list, err := h.bookingService(c).List(c.Request.Context(), models.BookingFilter{
		Status: c.Query("status"),
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list, "page": page.Page, "page_size": page.PageSize})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.bookingService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.bookingService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.bookingService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.bookingService(c).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type scheduleQuery struct {
	From string `form:"from" binding:"omitempty,isodate"`
	To   string `form:"to" binding:"omitempty,isodate"`
}

// Schedule lists bookings with driver and vehicle names for the portal.
func (h *Handler) Schedule(c *gin.Context) {
	var q scheduleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "from and to must be YYYY-MM-DD")
		return
	}
	rows, err := services.ReportsService{Bookings: h.Bookings}.Schedule(c.Request.Context(), services.ScheduleFilter{From: q.From, To: q.To})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": rows})
}
