package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation("bad").Status())
	assert.Equal(t, http.StatusNotFound, NotFound("missing").Status())
	assert.Equal(t, http.StatusUnprocessableEntity, Unprocessable("nope", nil).Status())
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom")).Status())
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	cause := errors.New("constraint")
	wrapped := fmt.Errorf("submit order: %w", Unprocessable("unprocessable", cause))

	got := From(wrapped)
	assert.Equal(t, KindUnprocessable, got.Kind)
	assert.ErrorIs(t, got, cause)
	assert.True(t, IsKind(wrapped, KindUnprocessable))
	assert.False(t, IsKind(wrapped, KindNotFound))
}

func TestFromWrapsUnknownAsInternal(t *testing.T) {
	got := From(errors.New("boom"))
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "internal server error", got.Message)
}
