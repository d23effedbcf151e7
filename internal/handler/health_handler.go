package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health returns a simple liveness response
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"message":   "InvoiceShield API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
