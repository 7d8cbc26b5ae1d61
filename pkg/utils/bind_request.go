package utils

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest decodes and validates a request body.
// Failures are 400s whose meta names the stage that rejected the body.
func BindRequest[T any](c echo.Context) (T, error) {
	var body T
	if err := c.Bind(&body); err != nil {
		return body, badRequest("request body is not valid json", "bind", err)
	}

	if _, err := Validate(body); err != nil {
		return body, badRequest("request body failed validation", "validate", err)
	}
	return body, nil
}

func badRequest(message, stage string, err error) *httperror.HTTPError {
	he := httperror.WrapError(http.StatusBadRequest, err)
	he.Message = message
	return he.AddMetaValue("stage", stage).AddMetaValue("detail", err.Error())
}
