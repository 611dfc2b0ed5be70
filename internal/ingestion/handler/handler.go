package handler

import (
	"errors"
	"io"
	"net/http"

	"opc_crm_backend/internal/adapters/storage"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/ingestion/service"
	"opc_crm_backend/internal/ingestion/transport"
	"opc_crm_backend/platform/httpkit"
	"opc_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgFileRequired     = "file is required"
	msgFileTooLarge     = "file is too large"
	msgUnsupportedFile  = "file must be .csv or .xlsx"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 1 << 20

type Handler struct {
	importer    *service.Importer
	val         *validator.Validator
	maxFileSize int64
}

func New(importer *service.Importer, val *validator.Validator, maxFileSize int64) *Handler {
	return &Handler{importer: importer, val: val, maxFileSize: maxFileSize}
}

// Import handles POST /api/v1/leads/import. The response is 206 when some rows failed.
func (h *Handler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)

	var req transport.ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgFileRequired, nil)
		return
	}
	if fileHeader.Size > h.maxFileSize {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
		return
	}
	contentType, ok := storage.ContentTypeFor(fileHeader.Filename)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgUnsupportedFile, nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFileRequired, nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	summary, err := h.importer.Import(c.Request.Context(), apphttp.Actor(id), service.Request{
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
		Mode:        req.Mode,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusCreated
	if summary.Errored > 0 {
		status = http.StatusPartialContent
	}
	httpkit.JSON(c, status, summary)
}

func (h *Handler) bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
		return
	}
	httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
}
