// Package httpserver manages server creation and api routing.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/internal/accountdelivery"
	"github.com/go-petr/pet-payments/internal/coordinator"
	"github.com/go-petr/pet-payments/internal/middleware"
	"github.com/go-petr/pet-payments/internal/paymentdelivery"
	"github.com/go-petr/pet-payments/internal/paymentrepo"
	"github.com/go-petr/pet-payments/internal/paymentservice"
	"github.com/go-petr/pet-payments/internal/txtracker"
	"github.com/go-petr/pet-payments/pkg/configpkg"
	"github.com/go-petr/pet-payments/pkg/currencypkg"
	"github.com/go-petr/pet-payments/pkg/tokenpkg"
)

type store interface {
	coordinator.Repo
	Close() error
}

// Server holds the coordinator, its store, handlers router and configuration.
type Server struct {
	Engine      *gin.Engine
	Config      configpkg.Config
	Coordinator *coordinator.Coordinator
	TokenMaker  tokenpkg.Maker

	store  store
	logger zerolog.Logger
	http   *http.Server
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

func newStore(logger zerolog.Logger, backend string) (store, error) {
	switch backend {
	case configpkg.StoreBadger:
		r, err := paymentrepo.NewRepoBadger(logger)
		if err != nil {
			return nil, err
		}

		return r, nil
	default:
		return paymentrepo.NewRepoMem(), nil
	}
}

// New creates Server type with instantiated domains and routes.
func New(logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	st, err := newStore(logger, config.StoreBackend)
	if err != nil {
		logger.Error().Err(err).Send()
		return nil, errors.New("cannot open transaction store")
	}

	var tokenMaker tokenpkg.Maker

	if config.TokenKind != configpkg.TokenNone {
		tokenMaker, err = tokenpkg.NewMaker(config.TokenKind, config.TokenSymmetricKey)
		if err != nil {
			_ = st.Close()
			return nil, errors.New("cannot create token maker")
		}
	}

	coord := coordinator.New(st, coordinator.SimulatedEffect(config.ExecutionDuration), logger)
	coord.Subscribe(func(e txtracker.Event) {
		logger.Debug().Stringer("event", e).Msg("tracker")
	})

	paymentService := paymentservice.New(coord)

	paymentHandler := paymentdelivery.NewHandler(paymentService)
	accountHandler := accountdelivery.NewHandler(paymentService)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	payments := engine.Group("/")
	if tokenMaker != nil {
		payments.Use(middleware.AuthMiddleware(tokenMaker))
	}

	payments.POST("/payments", paymentHandler.Create)

	engine.GET("/accounts/:account/transactions", accountHandler.ListTransactions)
	engine.GET("/status", paymentHandler.Status)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("currency", currencypkg.ValidCurrency)
		if err != nil {
			_ = st.Close()
			return nil, errors.New("cannot register currency validator")
		}
	}

	server := &Server{
		Engine:      engine,
		Config:      config,
		Coordinator: coord,
		TokenMaker:  tokenMaker,
		store:       st,
		logger:      logger,
	}

	server.http = &http.Server{
		Addr:              config.ServerAddress,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, nil
}

// Run listens on the configured address until Shutdown is called.
func (s *Server) Run() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests, lets in-flight payments finish and
// closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := s.Coordinator.Close(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("in-flight payments were aborted")
		errs = append(errs, err)
	}

	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
