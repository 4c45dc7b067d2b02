package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiktok-autoposter/infrastructure/accountstore"
	"tiktok-autoposter/infrastructure/clients/moneyprinter"
	tiktokclient "tiktok-autoposter/infrastructure/clients/tiktok"
	"tiktok-autoposter/infrastructure/configuration"
	"tiktok-autoposter/infrastructure/logger"
	httpHandler "tiktok-autoposter/interfaces/http"
	"tiktok-autoposter/server"
	"tiktok-autoposter/usecase"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	conf := configuration.C

	accountStore := accountstore.NewStore(conf.Accounts.Dir)
	generator := moneyprinter.NewClient(moneyprinter.Config{
		Host:         conf.Generator.Host,
		StorageDir:   conf.Generator.StorageDir,
		PollInterval: time.Duration(conf.Generator.PollIntervalSeconds) * time.Second,
		Timeout:      time.Duration(conf.Generator.TimeoutMinutes) * time.Minute,
	})
	tiktok := tiktokclient.NewClient(tiktokclient.Config{
		ClientKey:    conf.OAuth.TikTok.ClientKey,
		ClientSecret: conf.OAuth.TikTok.ClientSecret,
		RedirectURI:  conf.OAuth.TikTok.RedirectURI,
	}, accountStore)

	autoPost := usecase.NewAutoPostUsecase(accountStore, generator, tiktok)

	oauthHandler := httpHandler.NewTikTokOAuthHandler(conf.OAuth.TikTok, tiktok, accountStore)
	healthHandler := httpHandler.NewHealthHandler()
	router := server.InitiateRouter(oauthHandler, healthHandler, conf.App.LandingPage)

	port := conf.App.Port
	logger.GetLogger().WithField("port", port).Info("Starting TikTok OAuth server")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Scheduler loop: one posting run, then a fixed wait, forever. Errors are
	// logged and swallowed so a failed run never stops the loop.
	g.Go(func() error {
		// Give the server a moment to come up before the first run.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}

		interval := time.Duration(conf.Scheduler.IntervalSeconds) * time.Second
		for {
			runID := uuid.NewString()
			lg := logger.GetLogger().WithField("runId", runID)
			lg.Info("Starting posting run")
			if err := autoPost.RunOnce(ctx); err != nil {
				lg.WithField("error", err).Error("An error occurred")
			}
			lg.Info("Process completed, waiting before the next run")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
