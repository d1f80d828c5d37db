// Package integrationtest provides helpers for end-to-end tests of the http server.
package integrationtest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/cmd/httpserver"
	"github.com/go-petr/pet-payments/internal/middleware"
	"github.com/go-petr/pet-payments/internal/paymentdelivery"
	"github.com/go-petr/pet-payments/pkg/configpkg"
)

// SetupServer returns a test server built from the config at path.
// The execution window is replaced with window and the server is shut down
// when the test ends.
func SetupServer(t *testing.T, path string, window time.Duration, opts ...func(*configpkg.Config)) *httpserver.Server {
	t.Helper()

	config, err := configpkg.Load(path)
	if err != nil {
		t.Fatalf("configpkg.Load(%q) returned error: %v", path, err)
	}

	config.ExecutionDuration = window

	for _, opt := range opts {
		opt(&config)
	}

	logger := middleware.CreateLogger(config).Level(zerolog.FatalLevel)

	server, err := httpserver.New(logger, config)
	if err != nil {
		t.Fatalf("httpserver.New(logger, config) returned error: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			t.Errorf("server.Shutdown() returned error: %v", err)
		}
	})

	return server
}

// PaymentRequest is the body of POST /payments.
type PaymentRequest struct {
	DebtorAccount   string `json:"debtor_account"`
	CreditorAccount string `json:"creditor_account"`
	Amount          string `json:"instructed_amount"`
	Currency        string `json:"currency"`
}

// PostPayment submits body on behalf of clientID.
func PostPayment(t *testing.T, h http.Handler, clientID int32, body PaymentRequest, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal(%+v) returned error: %v", body, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(b))
	req.Header.Set(paymentdelivery.ClientIDHeader, strconv.Itoa(int(clientID)))

	for _, opt := range opts {
		opt(req)
	}

	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, req)

	return recorder
}

// GetHistory requests the transaction history of account.
func GetHistory(t *testing.T, h http.Handler, account string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+account+"/transactions", nil)

	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, req)

	return recorder
}
