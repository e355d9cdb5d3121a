package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"charter/internal/domain"
	"charter/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "request body is empty")
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload: "+err.Error())
		return false
	}
	return true
}

// bindJSONOrForm accepts either a JSON body or a plain HTML form post.
func bindJSONOrForm[T any](c *gin.Context, dst *T) bool {
	var err error
	if strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
		err = c.ShouldBindJSON(dst)
	} else {
		err = c.ShouldBind(dst)
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload: "+err.Error())
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		RespondDomainError(c, domain.ValidationError{Field: key, Msg: "must be a non-negative integer", Err: err})
		return 0, false
	}
	return n, true
}

// idParam reads a path id. Every id in this API is a UUID, so anything else
// is rejected before it reaches the database.
func idParam(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: name, Msg: "must be a valid id", Err: err})
		return "", false
	}
	return id.String(), true
}

func pagination(c *gin.Context) (domain.Pagination, bool) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return domain.Pagination{}, false
	}
	size, ok := queryInt(c, "page_size", 0)
	if !ok {
		return domain.Pagination{}, false
	}
	return domain.Pagination{Page: page, PageSize: size}, true
}

// readUpload loads the multipart file under field into memory.
func readUpload(c *gin.Context, field string) (services.Upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: field, Msg: "file is required", Err: err})
		return services.Upload{}, false
	}
	if fh.Size > maxUploadBytes {
		RespondDomainError(c, domain.ValidationError{Field: field, Msg: "file is larger than 10 MB"})
		return services.Upload{}, false
	}
	data, err := readAll(fh)
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: field, Msg: "could not read file", Err: err})
		return services.Upload{}, false
	}
	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
}

func sendPDF(c *gin.Context, data []byte, filename string) {
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
