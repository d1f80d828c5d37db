// Package main runs the payments API that executes transfers under fail-fast
// per-client and per-account locks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-petr/pet-payments/cmd/httpserver"
	"github.com/go-petr/pet-payments/internal/middleware"
	"github.com/go-petr/pet-payments/pkg/configpkg"
	"github.com/go-petr/pet-payments/pkg/tokenpkg"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "payments",
		Short: "Concurrent payments API",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs", "directory holding app.env")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(tokenCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configpkg.Load(*configPath)
			if err != nil {
				log.Error().Err(err).Msg("cannot load config")
				return err
			}

			logger := middleware.CreateLogger(config)

			server, err := httpserver.New(logger, config)
			if err != nil {
				logger.Error().Err(err).Msg("cannot create server")
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)

			go func() {
				logger.Info().Str("address", config.ServerAddress).Msg("PAYMENTS API SERVER HAS STARTED")
				errc <- server.Run()
			}()

			select {
			case err = <-errc:
				logger.Error().Err(err).Msg("server stopped")
			case <-ctx.Done():
				logger.Info().Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
			defer cancel()

			if serr := server.Shutdown(shutdownCtx); serr != nil {
				logger.Error().Err(serr).Msg("unclean shutdown")

				if err == nil {
					err = serr
				}
			}

			return err
		},
	}
}

func tokenCmd(configPath *string) *cobra.Command {
	var (
		clientID int32
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configpkg.Load(*configPath)
			if err != nil {
				return err
			}

			if config.TokenKind == configpkg.TokenNone {
				return errors.New("client authentication is disabled, set TOKEN_KIND")
			}

			maker, err := tokenpkg.NewMaker(config.TokenKind, config.TokenSymmetricKey)
			if err != nil {
				return err
			}

			if duration == 0 {
				duration = config.AccessTokenDuration
			}

			token, payload, err := maker.CreateToken(clientID, duration)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", payload.ExpiredAt.Format(time.RFC3339))

			return nil
		},
	}

	cmd.Flags().Int32Var(&clientID, "client", 0, "client id the token is issued to")
	cmd.Flags().DurationVar(&duration, "duration", 0, "token lifetime (defaults to ACCESS_TOKEN_DURATION)")

	_ = cmd.MarkFlagRequired("client")

	return cmd
}
