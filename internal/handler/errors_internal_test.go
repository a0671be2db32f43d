package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

func TestUnwrapMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain"), "plain"},
		{fmt.Errorf("service.TripService.Get: %w: trip abc", domain.ErrNotFound), "not found: trip abc"},
		{fmt.Errorf("service.ShareService.View: repo.Get: %w: shares/x", domain.ErrNotFound), "not found: shares/x"},
		{fmt.Errorf("%w: title is required", domain.ErrValidation), "validation error: title is required"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, unwrapMessage(tc.err))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{validation.Field("date", "must be a date"), http.StatusUnprocessableEntity, "validation_error"},
		{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized, "unauthenticated"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{domain.ErrTransport, http.StatusBadGateway, "upstream_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range tests {
		status, detail := classify(fmt.Errorf("op: %w", tc.err))
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, detail.Code, tc.err.Error())
	}

	_, detail := classify(validation.Field("date", "must be a date"))
	assert.Equal(t, map[string]string{"date": "must be a date"}, detail.Fields)
}
