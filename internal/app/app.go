package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"xbit_backend/internal/config"

	"golang.org/x/sync/errgroup"
)

// Сколько ждать завершения запросов при остановке
const shutdownTimeout = 15 * time.Second

type App struct {
	ServiceProvider *ServiceProvider
}

func NewApp() *App {
	return &App{}
}

func (s *App) initServiceProvider() {
	s.ServiceProvider = newServiceProvider()
}

func (s *App) Run() error {
	// .env читается до создания логгера: уровень и формат берутся из окружения
	envErr := config.Load(".env")

	s.initServiceProvider()
	sp := s.ServiceProvider
	log := sp.log()
	if envErr != nil {
		log.WithError(envErr).Warn("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := sp.Router(ctx)
	defer sp.Close()

	srv := &http.Server{
		Addr:              sp.HTTPCfg().Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sp.PriceService().Run(gctx)
		return nil
	})

	g.Go(func() error {
		events, cancel := sp.PlayStateRepository().Subscribe(256)
		defer cancel()
		sp.Tracker().Run(gctx, events)
		return nil
	})

	// Игры, подписанные этим сервером до перезапуска, продолжают опрашиваться
	g.Go(func() error {
		for chainID, c := range sp.Ledgers(gctx) {
			resumed, err := sp.PlayService(gctx).Reconcile(gctx, chainID, c.Signer(), "")
			if err != nil {
				log.WithError(err).WithField("chain_id", chainID).Warn("startup reconcile failed")
				continue
			}
			log.WithField("chain_id", chainID).WithField("resumed", len(resumed)).Info("startup reconcile done")
		}
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
