package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ashendes/retail-api/internal/apperr"
	"github.com/ashendes/retail-api/internal/models"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// fail attaches err for ErrorHandler and stops the chain
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("id must be a positive integer")
	}
	return uint(id), nil
}

func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperr.Validation("invalid request: " + err.Error())
	}
	return nil
}

// trimField trims a supplied text field in place. A supplied value that is
// blank after trimming is rejected.
func trimField(field string, value *string) error {
	if value == nil {
		return nil
	}
	*value = strings.TrimSpace(*value)
	if *value == "" {
		return apperr.Validation(field + " must not be blank")
	}
	return nil
}

func checkPrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return apperr.Validation("price must not be negative")
	case !models.MoneyFits(price):
		return apperr.Validation("price must have at most 2 decimal places and 10 integer digits")
	}
	return nil
}

// lookupErr maps a failed read to 404 or 422
func lookupErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return apperr.Unprocessable("unprocessable", err)
}

// persistErr maps a failed write to 422, keeping errors already classified
func persistErr(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Unprocessable("unprocessable", err)
}

func today() time.Time {
	now := time.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
