// Package accountdelivery manages delivery layer of account histories.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/pkg/errorspkg"
	"github.com/go-petr/pet-payments/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	History(ctx context.Context, account string) (domain.Snapshot, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) *Handler {
	return &Handler{service: as}
}

type historyRequest struct {
	Account string `uri:"account" binding:"required"`
}

// ListTransactions handles http request for the transaction history of an account.
// It answers 204 while the history cannot be captured consistently.
func (h *Handler) ListTransactions(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req historyRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrEmptyAccount))

		return
	}

	snapshot, err := h.service.History(ctx, req.Account)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSnapshotUnavailable):
			l.Info().Err(err).Send()
			gctx.Status(http.StatusNoContent)
		case errors.Is(err, domain.ErrValidation):
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		default:
			l.Error().Err(err).Send()
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: snapshot})
}
