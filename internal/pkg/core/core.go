// Package core holds the shared HTTP response helpers of hivemind handlers.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/pkg/errorx"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// ErrResponse is the body written for a failed request.
type ErrResponse struct {
	Code      int      `json:"code"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Reference string   `json:"reference,omitempty"`
}

// WriteResponse writes err as an ErrResponse, or data with 200 when err is nil.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		coder := errorx.ParseCoder(err)
		logger.Error("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(coder.HTTPStatus(), ErrResponse{
			Code:      coder.Code(),
			Message:   coder.String(),
			Errors:    []string{err.Error()},
			Reference: coder.Reference(),
		})
		return
	}
	c.JSON(http.StatusOK, data)
}

// WriteDetailedError writes an ErrResponse carrying explicit error and warning
// lists, used when an operation returns a result rather than a single error.
func WriteDetailedError(c *gin.Context, code int, errs, warnings []string) {
	coder := errorx.ParseCoder(errorx.WithCode(code, "%s", "detailed"))
	c.JSON(coder.HTTPStatus(), ErrResponse{
		Code:     coder.Code(),
		Message:  coder.String(),
		Errors:   errs,
		Warnings: warnings,
	})
}
