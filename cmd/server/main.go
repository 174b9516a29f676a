package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"vgsales/internal/api"
	"vgsales/internal/config"
	"vgsales/internal/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.LogLevel)

	// 1. Initialize Echo (Starts Instantly)
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.LogLevel)
	e.JSONSerializer = api.JSONSerializer{}
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// 2. The API is "live" but returns 503 until the dataset is loaded
	data := engine.FileDataset(cfg.DataFile)
	h := api.NewHandler(data, cfg.TopN)
	h.RegisterRoutes(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	// 3. Load in background; a load failure takes the server down
	g.Go(func() error {
		log.Info("BACKGROUND: Loading dataset...")
		t0 := time.Now()
		if err := loadData(gctx, data); err != nil {
			return err
		}
		log.Infof("BACKGROUND: Load complete in %v. API is fully ready.", time.Since(t0))
		return nil
	})

	// 4. Start Server (This happens immediately)
	g.Go(func() error {
		log.Infof("Server ready on %s (data loading in background...)", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

// loadData waits for the dataset but gives up when ctx ends. The parse itself
// cannot be interrupted, so an abandoned load finishes (or not) on its own
// while the process exits.
func loadData(ctx context.Context, data *engine.Dataset) error {
	done := make(chan error, 1)
	go func() {
		_, err := data.Load()
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
