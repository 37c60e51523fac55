package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

// Response is the JSON envelope returned by every API endpoint
type Response struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Pagination *ports.Pagination `json:"pagination,omitempty"`
}

// Data is a named payload inside the envelope, e.g. {"task": {...}}
type Data map[string]interface{}

func ok(c echo.Context, code int, message string, data Data) error {
	resp := Response{Success: true, Message: message}
	if data != nil {
		resp.Data = data
	}
	return c.JSON(code, resp)
}

// Validator adapts the shared entity validator to echo
type Validator struct{}

// Validate validates request structs and reports the first failing field
func (Validator) Validate(i interface{}) error {
	return entities.ValidateStruct(i)
}

// ErrorHandler renders errors in the response envelope. Domain errors map to
// their status codes; anything unrecognised is logged and reported as 500.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := errorResponse(err)
		if code >= http.StatusInternalServerError {
			log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				WithError(err).
				Errorw("Internal server error",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
				)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, resp)
		}
		if err != nil {
			log.Errorw("Error sending response", "error", err)
		}
	}
}

func errorResponse(err error) (int, Response) {
	var (
		verr *entities.ValidationError
		he   *echo.HTTPError
	)

	switch {
	case errors.As(err, &verr):
		resp := Response{Error: verr.Error()}
		if verr.Field != "" {
			resp.Details = map[string]string{verr.Field: verr.Reason}
		}
		return http.StatusBadRequest, resp
	case errors.Is(err, entities.ErrTaskNotFound):
		return http.StatusNotFound, Response{Error: "Task not found"}
	case errors.Is(err, entities.ErrUserNotFound):
		return http.StatusNotFound, Response{Error: "User not found"}
	case errors.Is(err, entities.ErrEmailTaken):
		return http.StatusConflict, Response{Error: "Email already registered"}
	case errors.As(err, &he):
		msg, isString := he.Message.(string)
		if !isString {
			msg = http.StatusText(he.Code)
		}
		return he.Code, Response{Error: msg}
	}

	return http.StatusInternalServerError, Response{Error: "Internal server error"}
}
