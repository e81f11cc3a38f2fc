package api

import (
	"bytes"
	"errors"
	"io"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

var (
	errEmptyBody    = errors.New("empty request body")
	errBodyTooLarge = errors.New("request body too large")
)

// decodeBody reads at most maxBodySize bytes and decodes them as JSON.
func decodeBody(c echo.Context, out any) error {
	body := c.Request().Body
	if body == nil {
		return errEmptyBody
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBodySize+1))
	if err != nil {
		return err
	}
	if len(data) > maxBodySize {
		return errBodyTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyBody
	}
	return sonic.ConfigStd.Unmarshal(data, out)
}
