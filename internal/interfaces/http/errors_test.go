package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/festival-pos/internal/domain"
	apphttp "github.com/jhoicas/festival-pos/internal/interfaces/http"
)

func TestErrorBody(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		code     string
		redirect string
	}{
		{domain.ErrExpired, http.StatusForbidden, "EXPIRED", apphttp.LoginPage},
		{domain.ErrAlreadyUsed, http.StatusConflict, "ALREADY_USED", apphttp.LoginPage},
		{fmt.Errorf("checkout: %w", domain.ErrInsufficientStock), http.StatusConflict, "INSUFFICIENT_STOCK", ""},
		{domain.StoreUnavailable(errors.New("dial tcp: refused"), "get"), http.StatusServiceUnavailable, "STORE_UNAVAILABLE", ""},
		{errors.New("panic controlado"), http.StatusInternalServerError, "INTERNAL", ""},
	}
	for _, tc := range cases {
		status, body := apphttp.ErrorBody(tc.err)
		assert.Equal(t, tc.status, status, tc.code)
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, tc.redirect, body.Redirect, tc.code)
	}

	_, body := apphttp.ErrorBody(domain.StoreUnavailable(errors.New("permission denied"), "get"))
	assert.Equal(t, domain.ErrStoreUnavailable.Error(), body.Message)
}
