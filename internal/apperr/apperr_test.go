package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedErrorsMatchSentinels(t *testing.T) {
	err := Validation("items must not be empty")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))

	err = InsufficientTokens("balance %d below cost %d", 15, 20)
	assert.True(t, errors.Is(err, ErrInsufficientTokens))
	assert.Contains(t, err.Error(), "balance 15 below cost 20")

	// Wrapping through another layer keeps the kind.
	outer := fmt.Errorf("spin failed: %w", err)
	assert.True(t, errors.Is(outer, ErrInsufficientTokens))
	assert.Equal(t, http.StatusPaymentRequired, HTTPStatus(outer))
}

func TestPublicMessageCollapsesDenials(t *testing.T) {
	assert.Equal(t, "resource not found", PublicMessage(NotFound("order %s", "abc")))
	assert.Equal(t, "access denied", PublicMessage(Forbidden("order belongs to someone else")))

	// Actionable kinds surface their detail.
	assert.Contains(t, PublicMessage(InvalidState("order not ready for pickup")), "not ready")

	// Unknown errors never leak.
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
}

func TestHTTPStatusDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("badge already awarded")))
}
