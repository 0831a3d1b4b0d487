package v1

import (
	"net/http"

	"github.com/kiosk404/nubabel/pkg/errorx"
)

// Hivemind handler error codes.
// Code format: 1XXYYZ
//   - 1:  module prefix (hivemind handler)
//   - XX: resource group (00=common, 01=extension lifecycle, 02=events, 03=catalog)
//   - YY: sequential error number
//   - Z:  reserved (0)

const (
	// Common request errors (100xxx).
	ErrBind       = 100001
	ErrValidation = 100002

	// Extension lifecycle errors (1001xx).
	ErrExtensionNotFound = 100101
	ErrExtensionLoad     = 100102
	ErrExtensionUnload   = 100103
	ErrExtensionReload   = 100104
	ErrExtensionScan     = 100105

	// Event errors (1002xx).
	ErrUnknownEvent = 100201
	ErrEmit         = 100202
	ErrStreamClosed = 100203

	// Catalog errors (1003xx).
	ErrSkillList = 100301
	ErrAgentList = 100302
)

func init() {
	// Common.
	errorx.MustRegister(newCoder(ErrBind, http.StatusBadRequest, "Request body binding failed"))
	errorx.MustRegister(newCoder(ErrValidation, http.StatusBadRequest, "Request validation failed"))

	// Extension lifecycle.
	errorx.MustRegister(newCoder(ErrExtensionNotFound, http.StatusNotFound, "Extension not found"))
	errorx.MustRegister(newCoder(ErrExtensionLoad, http.StatusUnprocessableEntity, "Extension failed to load"))
	errorx.MustRegister(newCoder(ErrExtensionUnload, http.StatusInternalServerError, "Extension failed to unload"))
	errorx.MustRegister(newCoder(ErrExtensionReload, http.StatusUnprocessableEntity, "Extension failed to reload"))
	errorx.MustRegister(newCoder(ErrExtensionScan, http.StatusBadRequest, "Extension directory scan failed"))

	// Events.
	errorx.MustRegister(newCoder(ErrUnknownEvent, http.StatusBadRequest, "Unknown lifecycle event"))
	errorx.MustRegister(newCoder(ErrEmit, http.StatusInternalServerError, "Failed to emit event"))
	errorx.MustRegister(newCoder(ErrStreamClosed, http.StatusServiceUnavailable, "Event stream closed"))

	// Catalog.
	errorx.MustRegister(newCoder(ErrSkillList, http.StatusInternalServerError, "Failed to list skills"))
	errorx.MustRegister(newCoder(ErrAgentList, http.StatusInternalServerError, "Failed to list agents"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return "" }
