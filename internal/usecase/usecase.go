// Package usecase holds the business rules of the back-office. Use cases
// receive the store at construction and return *apperror.Error values that
// the HTTP layer maps to status codes.
package usecase

import (
	"errors"
	"strings"
	"time"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// internalError passes taxonomy errors through and wraps anything else.
func internalError(message string, err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(message, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func now() time.Time {
	return time.Now().UTC()
}
