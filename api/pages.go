package api

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	//go:embed web/login.html
	loginHTML []byte
	//go:embed web/index.html
	indexHTML []byte
)

func noStore(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderCacheControl, "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
}

func loginPage(c echo.Context) error {
	noStore(c)
	return c.HTMLBlob(http.StatusOK, loginHTML)
}

func indexPage(c echo.Context) error {
	noStore(c)
	return c.HTMLBlob(http.StatusOK, indexHTML)
}
