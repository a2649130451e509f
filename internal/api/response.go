package api

import (
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"storefront-service/internal/apperror"
	"storefront-service/internal/query"
	"strconv"
	"strings"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
}

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, envelope{Success: true, Message: message, Data: data})
}

func respondPage(c echo.Context, data any, pagination query.Pagination) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Pagination: &pagination})
}

// statusFor maps an error kind to the HTTP status the clients expect. Conflicts are reported
// as 400, not 409.
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindConflict, apperror.KindDependency:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler writes every error as {"error": true, "message": ...}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	} else {
		code = statusFor(apperror.KindOf(err))
		message = apperror.Message(err)
	}

	if code >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("method", c.Request().Method).Str("uri", c.Request().RequestURI).Msg("Request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorBody{Error: true, Message: message})
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error writing error response")
	}
}

// queryID reads the required ?id= parameter.
func queryID(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("api.queryID", "a valid id is required")
	}
	return id, nil
}

func queryPage(c echo.Context) (query.Page, error) {
	page, err := query.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
	if err != nil {
		return query.Page{}, apperror.Wrap(apperror.KindValidation, "api.queryPage", err, "page and limit must be positive integers")
	}
	return page, nil
}

func invalidJSON(op string, err error) error {
	return apperror.Wrap(apperror.KindValidation, op, err, "Invalid JSON data")
}

func invalidAction(op string) error {
	return apperror.Validation(op, "Invalid action")
}
