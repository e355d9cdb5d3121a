package handlers

import (
	"net/http"
	"strings"

	"charter/internal/http/middleware"
	"charter/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) driverService(c *gin.Context) services.DriverService {
	return services.DriverService{Drivers: h.Drivers, Storage: h.Storage, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) employeeService(c *gin.Context) services.EmployeeService {
	return services.EmployeeService{Employees: h.Employees, Storage: h.Storage, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) vehicleService(c *gin.Context) services.VehicleService {
	return services.VehicleService{Vehicles: h.Vehicles, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) ListDrivers(c *gin.Context) {
	activeOnly := strings.EqualFold(c.Query("active"), "true")
	list, err := h.driverService(c).List(c.Request.Context(), c.Query("q"), activeOnly)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": list})
}

func (h *Handler) CreateDriver(c *gin.Context) {
	var in services.DriverInput
	if !BindJSONOrError(c, &in) {
		return
	}
	d, err := h.driverService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDriver(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.driverService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDriver(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.DriverInput
	if !BindJSONOrError(c, &in) {
		return
	}
	d, err := h.driverService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDriver(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.driverService(c).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UploadDriverAvatar(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	up, ok := readUpload(c, "file")
	if !ok {
		return
	}
	d, err := h.driverService(c).UploadAvatar(c.Request.Context(), id, up)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDriverDocuments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	docs, err := h.driverService(c).ListDocuments(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) AddDriverDocument(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	up, ok := readUpload(c, "file")
	if !ok {
		return
	}
	doc, err := h.driverService(c).AddDocument(c.Request.Context(), id, c.PostForm("name"), up)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) DeleteDriverDocument(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	docID, ok := idParam(c, "docId")
	if !ok {
		return
	}
	if err := h.driverService(c).DeleteDocument(c.Request.Context(), id, docID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListEmployees(c *gin.Context) {
	list, err := h.employeeService(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": list})
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	var in services.EmployeeInput
	if !BindJSONOrError(c, &in) {
		return
	}
	e, err := h.employeeService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEmployee(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	e, err := h.employeeService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) UpdateEmployee(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.EmployeeInput
	if !BindJSONOrError(c, &in) {
		return
	}
	e, err := h.employeeService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) UploadEmployeeAvatar(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	up, ok := readUpload(c, "file")
	if !ok {
		return
	}
	e, err := h.employeeService(c).UploadAvatar(c.Request.Context(), id, up)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) ListVehicles(c *gin.Context) {
	page, ok := pagination(c)
	if !ok {
		return
	}
	list, err := h.vehicleService(c).List(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": list})
}

func (h *Handler) CreateVehicle(c *gin.Context) {
	var in services.VehicleInput
	if !BindJSONOrError(c, &in) {
		return
	}
	v, err := h.vehicleService(c).Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	v, err := h.vehicleService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.VehicleInput
	if !BindJSONOrError(c, &in) {
		return
	}
	v, err := h.vehicleService(c).Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
