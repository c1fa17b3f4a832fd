package http

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
)

// bindJSON decodes the request body into dst. An empty body leaves dst
// untouched so that the use case reports the missing fields.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperror.Validation("body", "Invalid JSON in request body")
	}
	return nil
}
