package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conorfennell/studytrace/internal/metrics"
	"github.com/conorfennell/studytrace/internal/web"
)

// ServeCmd returns the serve command.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	prom := metrics.NewPrometheus("studytrace")
	a, err := openApp(cmd, prom)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := web.NewServer(web.Deps{
		DB:              a.db,
		Study:           a.study,
		Ingester:        a.ingester,
		Syncer:          a.syncer,
		Validate:        a.validate,
		Metrics:         prom.Handler(),
		Logger:          a.logger,
		AllowOrigin:     a.cfg.Server.CORSAllowOrigin,
		SuggestionLimit: a.cfg.Review.SuggestionLimit,
		DueLimit:        a.cfg.Review.DueLimit,
	})
	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: http.TimeoutHandler(handler, a.cfg.Server.RequestTimeout, `{"error":"timeout","message":"request timed out"}`),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
