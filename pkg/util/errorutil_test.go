package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewAlreadyVoted("issue-1")

	mapped := ToDomainError(original)
	require.NotNil(t, mapped)
	assert.Equal(t, "ALREADY_VOTED", mapped.Code)
	assert.Equal(t, http.StatusConflict, mapped.HTTPStatus)
}

func TestToDomainErrorWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewForbidden("nope"))

	mapped := ToDomainError(wrapped)
	assert.Equal(t, "FORBIDDEN", mapped.Code)
}

func TestToDomainErrorNoRows(t *testing.T) {
	mapped := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestIsCode(t *testing.T) {
	err := NewPaymentNotCompleted("cs_123")
	assert.True(t, IsCode(err, "PAYMENT_NOT_COMPLETED"))
	assert.False(t, IsCode(err, "NOT_FOUND"))
	assert.False(t, IsCode(errors.New("plain"), "NOT_FOUND"))
	assert.False(t, IsCode(nil, "NOT_FOUND"))
}

func TestErrorCodesCarryExpectedStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewInvalidArgument("bad", nil), "INVALID_ARGUMENT", http.StatusBadRequest},
		{NewNotFound("issue", nil), "NOT_FOUND", http.StatusNotFound},
		{NewUnauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("no role"), "FORBIDDEN", http.StatusForbidden},
		{NewAlreadyExists("user", nil), "ALREADY_EXISTS", http.StatusConflict},
		{NewPaymentNotCompleted("cs"), "PAYMENT_NOT_COMPLETED", http.StatusPaymentRequired},
		{NewDependencyUnavailable("redis", nil), "DEPENDENCY_UNAVAILABLE", http.StatusServiceUnavailable},
		{NewInternalError(nil), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			mapped := ToDomainError(tc.err)
			assert.Equal(t, tc.code, mapped.Code)
			assert.Equal(t, tc.status, mapped.HTTPStatus)
		})
	}
}
