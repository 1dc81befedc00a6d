package serverutils

import (
	"errors"

	"ai-study-assistant-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to the HTTP status callers see.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindExtraction:
		return fiber.StatusUnprocessableEntity
	case apperror.KindParse:
		return fiber.StatusBadGateway
	case apperror.KindUnavailable, apperror.KindProvider:
		return fiber.StatusServiceUnavailable
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// Body builds the error payload. Messages of internal errors are not exposed.
func Body(err error) ErrorBody {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := apperror.KindInternal
		if fe.Code < fiber.StatusInternalServerError {
			kind = apperror.KindValidation
		}
		if fe.Code == fiber.StatusNotFound {
			kind = apperror.KindNotFound
		}
		return ErrorResponse(fe.Code, string(kind), fe.Message)
	}

	kind := apperror.KindOf(err)
	code := StatusFor(kind)
	message := "internal server error"

	var ae *apperror.AppError
	if errors.As(err, &ae) && kind != apperror.KindInternal {
		message = ae.Message
	}

	body := ErrorResponse(code, string(kind), message)
	if kind == apperror.KindParse {
		body.Raw = apperror.RawOf(err)
	}
	return body
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		body := Body(err)
		return ctx.Status(body.Code).JSON(body)
	}
}
