package usecase

import (
	"errors"
	"net/http"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/validation"
)

func invalidInput(err error) *apperror.AppError {
	return apperror.New(http.StatusBadRequest, validation.Message(err), err)
}

// notFoundOr maps domain.ErrNotFound to a 404 with msg and anything else to a 500.
func notFoundOr(err error, msg string) *apperror.AppError {
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.New(http.StatusNotFound, msg, err)
	}
	return apperror.Internal(err)
}
