// Package paymentdelivery manages delivery layer of payments.
package paymentdelivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/internal/completion"
	"github.com/go-petr/pet-payments/internal/coordinator"
	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/internal/middleware"
	"github.com/go-petr/pet-payments/pkg/errorspkg"
	"github.com/go-petr/pet-payments/pkg/web"
)

// ClientIDHeader carries the id of the client submitting a payment.
const ClientIDHeader = "ClientId"

// ErrClientMismatch indicates that the token was issued to another client.
var ErrClientMismatch = errors.New("token does not belong to the client")

// Service provides service layer interface needed by payment delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package paymentdelivery
type Service interface {
	Pay(ctx context.Context, p domain.Payment) (domain.Transaction, error)
	Status(ctx context.Context) coordinator.Stats
}

// Handler facilitates payment delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns payment handler.
func NewHandler(ps Service) *Handler {
	return &Handler{
		service: ps,
	}
}

type request struct {
	DebtorAccount   string `json:"debtor_account" binding:"required"`
	CreditorAccount string `json:"creditor_account" binding:"required"`
	Amount          string `json:"instructed_amount" binding:"required"`
	Currency        string `json:"currency" binding:"required,currency"`
}

type data struct {
	Transaction domain.Transaction `json:"transaction"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Create handles http request to execute a payment between two accounts.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	clientID, err := strconv.ParseInt(strings.TrimSpace(gctx.GetHeader(ClientIDHeader)), 10, 32)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidClientID))

		return
	}

	if payload, ok := middleware.Payload(gctx); ok && payload.ClientID != int32(clientID) {
		l.Info().Int32("token_client_id", payload.ClientID).Int64("client_id", clientID).Err(ErrClientMismatch).Send()
		gctx.JSON(http.StatusForbidden, web.Error(ErrClientMismatch))

		return
	}

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		errMsg := err.Error()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			errMsg = ve[0].Field() + web.GetErrorMsg(ve[0])
		}

		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: errMsg})

		return
	}

	p := domain.Payment{
		ClientID:        int32(clientID),
		DebtorAccount:   req.DebtorAccount,
		CreditorAccount: req.CreditorAccount,
		Amount:          req.Amount,
		Currency:        req.Currency,
	}

	tx, err := h.service.Pay(ctx, p)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		case errors.Is(err, domain.ErrLockConflict):
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusConflict, web.Error(domain.ErrLockConflict))
		case errors.Is(err, completion.ErrCanceled):
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusInternalServerError, web.Error(err))
		default:
			l.Error().Err(err).Send()
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{tx}})
}

// Status handles http request for diagnostic counters.
func (h *Handler) Status(gctx *gin.Context) {
	gctx.JSON(http.StatusOK, web.Response{Data: h.service.Status(gctx.Request.Context())})
}
