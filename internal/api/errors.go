// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package api

import (
	"errors"
	"net/http"

	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/labstack/echo/v4"
)

// Body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Status code of each ledger error kind.
var kindStatus = map[string]int{
	"SupplyExhausted":            http.StatusConflict,
	"IncorrectPayment":           http.StatusPaymentRequired,
	"UnknownToken":               http.StatusNotFound,
	"UnauthorizedDirectTransfer": http.StatusForbidden,
	"PayoutFailed":               http.StatusBadGateway,
	"InvalidConfiguration":       http.StatusBadRequest,
}

func statusOfKind(kind string) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusBadRequest
}

func statusOf(err error) int {
	if kind := ledger.Kind(err); kind != "" {
		return statusOfKind(kind)
	}
	switch {
	case errors.Is(err, chain.ErrUnknownContract), errors.Is(err, chain.ErrUnknownReceipt):
		return http.StatusNotFound
	case errors.Is(err, chain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, chain.ErrNotReadOnly), errors.Is(err, contract.ErrInvalidCalldata):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorJSON(c echo.Context, err error) error {
	kind := ledger.Kind(err)
	if kind == "" {
		kind = http.StatusText(statusOf(err))
	}
	return c.JSON(statusOf(err), ErrorResponse{Error: kind, Message: err.Error()})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Message: message,
	})
}
