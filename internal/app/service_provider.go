package app

import (
	"context"
	"errors"
	"time"

	playAPI "xbit_backend/internal/api/play"
	tableAPI "xbit_backend/internal/api/table"
	"xbit_backend/internal/client"
	"xbit_backend/internal/client/evm"
	priceClient "xbit_backend/internal/client/price"
	"xbit_backend/internal/config"
	"xbit_backend/internal/config/env"
	"xbit_backend/internal/metrics"
	"xbit_backend/internal/middleware"
	"xbit_backend/internal/repository"
	"xbit_backend/internal/repository/invalid_play_repo"
	"xbit_backend/internal/repository/pending_play_repo"
	"xbit_backend/internal/repository/play_state_repo"
	"xbit_backend/internal/repository/table_repo"
	"xbit_backend/internal/service"
	"xbit_backend/internal/service/pacer"
	"xbit_backend/internal/service/play"
	"xbit_backend/internal/service/poller"
	"xbit_backend/internal/service/preflight"
	"xbit_backend/internal/service/price"
	"xbit_backend/internal/service/table"
	"xbit_backend/pkg/logger"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Таймаут HTTP запроса к источнику котировок
const priceTimeout = 10 * time.Second

type ServiceProvider struct {
	// Logger
	logCfg config.LogConfig
	logger *logger.Logger

	//TXManager
	txManager trm.Manager

	// Database, nil - хранилища в памяти
	pgConfig config.PGConfig
	dbClient *pgxpool.Pool

	// Catalog and ledgers
	catalog   config.CatalogConfig
	ledgerCfg config.LedgerConfig
	ledgers   map[int64]*evm.Client

	// Play ID bits
	invalidRepo repository.InvalidPlayRepository
	pendingRepo repository.PendingPlayRepository
	stateRepo   *play_state_repo.StateRepo
	tableRepo   repository.TableRepository

	// Services
	playCfg   config.PlayConfig
	priceCfg  config.PriceConfig
	priceServ service.PriceService
	preServ   service.PreflightService
	playServ  service.PlayService
	tableServ service.TableService
	tracker   *pacer.Tracker

	// Handlers
	jwtCfg    config.JWTConfig
	playHand  *playAPI.Handler
	tableHand *tableAPI.Handler

	// Router and HTTP config
	httpCfg config.HTTPConfig
	router  chi.Router
}

func newServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (sp *ServiceProvider) LogCfg() config.LogConfig {
	if sp.logCfg == nil {
		sp.logCfg = env.NewLogConfig()
	}
	return sp.logCfg
}

func (sp *ServiceProvider) Logger() *logger.Logger {
	if sp.logger == nil {
		sp.logger = logger.New(sp.LogCfg().Level(), sp.LogCfg().Format())
	}
	return sp.logger
}

// PgConfig nil, если PG_DSN не задан
func (sp *ServiceProvider) PgConfig() config.PGConfig {
	if sp.pgConfig == nil {
		cfg, err := env.NewPGConfig()
		if errors.Is(err, env.ErrPGDSNNotFound) {
			return nil
		}
		if err != nil {
			panic("failed to get database config: " + err.Error())
		}
		sp.pgConfig = cfg
	}
	return sp.pgConfig
}

func (sp *ServiceProvider) DBClient(ctx context.Context) *pgxpool.Pool {
	if sp.dbClient == nil {
		cfg := sp.PgConfig()
		if cfg == nil {
			return nil
		}
		dbc, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			panic("failed to create db pool: " + err.Error())
		}
		err = dbc.Ping(ctx)
		if err != nil {
			panic("failed to ping db: " + err.Error())
		}
		sp.dbClient = dbc
	}
	return sp.dbClient
}

func (sp *ServiceProvider) TXManager(ctx context.Context) trm.Manager {
	if sp.txManager == nil {
		dbc := sp.DBClient(ctx)
		if dbc == nil {
			sp.txManager = repository.NopTxManager{}
			return sp.txManager
		}

		m, err := manager.New(trmpgx.NewDefaultFactory(dbc))
		if err != nil {
			panic("failed to create tx manager: " + err.Error())
		}

		sp.txManager = m
	}

	return sp.txManager
}

func (sp *ServiceProvider) InvalidPlayRepository(ctx context.Context) repository.InvalidPlayRepository {
	if sp.invalidRepo == nil {
		if dbc := sp.DBClient(ctx); dbc != nil {
			sp.invalidRepo = invalid_play_repo.NewInvalidPlayRepository(dbc)
		} else {
			sp.invalidRepo = invalid_play_repo.NewMemoryInvalidPlayRepository()
		}
	}
	return sp.invalidRepo
}

func (sp *ServiceProvider) PendingPlayRepository(ctx context.Context) repository.PendingPlayRepository {
	if sp.pendingRepo == nil {
		if dbc := sp.DBClient(ctx); dbc != nil {
			sp.pendingRepo = pending_play_repo.NewPendingPlayRepository(dbc)
		} else {
			sp.pendingRepo = pending_play_repo.NewMemoryPendingPlayRepository()
		}
	}
	return sp.pendingRepo
}

func (sp *ServiceProvider) PlayStateRepository() *play_state_repo.StateRepo {
	if sp.stateRepo == nil {
		sp.stateRepo = play_state_repo.NewPlayStateRepository()
	}
	return sp.stateRepo
}

func (sp *ServiceProvider) Catalog() config.CatalogConfig {
	if sp.catalog == nil {
		cfg, err := env.NewCatalogConfigFromYAML("config.yaml")
		if err != nil {
			panic("failed to get catalog config: " + err.Error())
		}
		sp.catalog = cfg
	}
	return sp.catalog
}

func (sp *ServiceProvider) TableRepository() repository.TableRepository {
	if sp.tableRepo == nil {
		repo, err := table_repo.NewTableRepository(sp.Catalog().Tables())
		if err != nil {
			panic("failed to load probability tables: " + err.Error())
		}
		sp.tableRepo = repo
	}
	return sp.tableRepo
}

func (sp *ServiceProvider) LedgerCfg() config.LedgerConfig {
	if sp.ledgerCfg == nil {
		cfg, err := env.NewLedgerConfig()
		if err != nil {
			panic("failed to get ledger config: " + err.Error())
		}
		sp.ledgerCfg = cfg
	}
	return sp.ledgerCfg
}

// Ledgers Клиент на каждую сеть из каталога
func (sp *ServiceProvider) Ledgers(ctx context.Context) map[int64]*evm.Client {
	if sp.ledgers == nil {
		ledgers := make(map[int64]*evm.Client, len(sp.Catalog().Networks()))
		for _, network := range sp.Catalog().Networks() {
			c, err := evm.Dial(ctx, network, sp.LedgerCfg(), sp.Logger().Component("evm").WithField("chain_id", network.ChainID))
			if err != nil {
				panic("failed to dial network " + network.Name + ": " + err.Error())
			}
			ledgers[network.ChainID] = c
		}
		sp.ledgers = ledgers
	}
	return sp.ledgers
}

func (sp *ServiceProvider) ledgerClients(ctx context.Context) map[int64]client.LedgerClient {
	out := make(map[int64]client.LedgerClient, len(sp.Ledgers(ctx)))
	for chainID, c := range sp.Ledgers(ctx) {
		out[chainID] = c
	}
	return out
}

func (sp *ServiceProvider) PlayCfg() config.PlayConfig {
	if sp.playCfg == nil {
		cfg, err := env.NewPlayConfig()
		if err != nil {
			panic("failed to get play config: " + err.Error())
		}
		sp.playCfg = cfg
	}
	return sp.playCfg
}

func (sp *ServiceProvider) PriceCfg() config.PriceConfig {
	if sp.priceCfg == nil {
		cfg, err := env.NewPriceConfig()
		if err != nil {
			panic("failed to get price config: " + err.Error())
		}
		sp.priceCfg = cfg
	}
	return sp.priceCfg
}

func (sp *ServiceProvider) PriceService() service.PriceService {
	if sp.priceServ == nil {
		sp.priceServ = price.NewPriceService(
			priceClient.NewCryptoCompare(sp.PriceCfg().SourceURL(), priceTimeout),
			sp.Catalog().DefaultPrices(),
			sp.Catalog().QuoteSymbols(),
			sp.PriceCfg().RefreshInterval(),
			sp.Logger().Component("price"),
		)
	}
	return sp.priceServ
}

func (sp *ServiceProvider) PreflightService(ctx context.Context) service.PreflightService {
	if sp.preServ == nil {
		sp.preServ = preflight.NewPreflightService(sp.ledgerClients(ctx), preflight.Config{
			ApproveCeiling:     sp.PlayCfg().ApproveCeiling(),
			SecondaryThreshold: sp.PlayCfg().SecondaryThreshold(),
		}, sp.Logger().Component("preflight"))
	}
	return sp.preServ
}

func (sp *ServiceProvider) PlayService(ctx context.Context) service.PlayService {
	if sp.playServ == nil {
		cfg := sp.PlayCfg()

		// Один лимитер на сеть: все опросы статусов делят лимит RPC
		networks := make(map[int64]play.Network, len(sp.Ledgers(ctx)))
		for chainID, c := range sp.Ledgers(ctx) {
			networks[chainID] = play.Network{
				Ledger:  c,
				Limiter: rate.NewLimiter(rate.Limit(sp.LedgerCfg().StatusQueriesPerSecond()), sp.LedgerCfg().StatusBurst()),
			}
		}

		serv, err := play.NewPlayService(play.Deps{
			Networks:  networks,
			Preflight: sp.PreflightService(ctx),
			Tables:    sp.TableRepository(),
			Prices:    sp.PriceService(),
			Plays:     sp.PlayStateRepository(),
			Invalid:   sp.InvalidPlayRepository(ctx),
			Pending:   sp.PendingPlayRepository(ctx),
			TxManager: sp.TXManager(ctx),
			Pacer:     pacer.NewGuarded(cfg.GuardDelay(), pacer.Immediate{}),
		}, play.Config{
			Poll: poller.Config{
				Interval:   cfg.PollInterval(),
				Timeout:    cfg.PollTimeout(),
				Attempts:   cfg.PollAttempts(),
				RetryDelay: cfg.PollRetryDelay(),
			},
			DisplayCapacity: cfg.DisplayCapacity(),
			FadeAfter:       cfg.FadeAfter(),
			ResumeExpiry:    cfg.ResumeExpiry(),
			DefaultChainID:  cfg.DefaultChainID(),
		}, sp.Logger().Component("play"))
		if err != nil {
			panic("failed to create play service: " + err.Error())
		}
		sp.playServ = serv
	}
	return sp.playServ
}

func (sp *ServiceProvider) TableService(ctx context.Context) service.TableService {
	if sp.tableServ == nil {
		sp.tableServ = table.NewTableService(sp.TableRepository(), sp.PriceService(), sp.ledgerClients(ctx), sp.PriceCfg().MaxAge(), sp.Logger().Component("table"))
	}
	return sp.tableServ
}

func (sp *ServiceProvider) Tracker() *pacer.Tracker {
	if sp.tracker == nil {
		sp.tracker = pacer.NewTracker(pacer.DefaultDurations())
	}
	return sp.tracker
}

func (sp *ServiceProvider) JWTCfg() config.JWTConfig {
	if sp.jwtCfg == nil {
		cfg, err := env.NewJWTConfig()
		if err != nil {
			panic("failed to get jwt config: " + err.Error())
		}
		sp.jwtCfg = cfg
	}
	return sp.jwtCfg
}

func (sp *ServiceProvider) PlayHandler(ctx context.Context) *playAPI.Handler {
	if sp.playHand == nil {
		sp.playHand = playAPI.NewHandler(playAPI.HandlerDeps{
			Serv:    sp.PlayService(ctx),
			Tracker: sp.Tracker(),
			Log:     sp.Logger().Component("api"),
		})
	}
	return sp.playHand
}

func (sp *ServiceProvider) TableHandler(ctx context.Context) *tableAPI.Handler {
	if sp.tableHand == nil {
		sp.tableHand = tableAPI.NewHandler(tableAPI.HandlerDeps{
			Serv:  sp.TableService(ctx),
			Plays: sp.PlayService(ctx),
			Log:   sp.Logger().Component("api"),
		})
	}
	return sp.tableHand
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}

	return sp.httpCfg
}

func (sp *ServiceProvider) Router(ctx context.Context) chi.Router {
	if sp.router == nil {
		r := chi.NewRouter()

		r.Use(chiMiddleware.RequestID)
		r.Use(chiMiddleware.Recoverer)

		// CORS middleware
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           60 * 15,
		}))

		r.Handle("/metrics", metrics.Handler())

		// Table endpoints
		tableHandler := sp.TableHandler(ctx)
		r.Route("/tables", func(rr chi.Router) {
			rr.Get("/", tableHandler.List)
			rr.Get("/{id}/stats", tableHandler.Stats)
		})

		// Play endpoints
		playHandler := sp.PlayHandler(ctx)
		r.Group(func(rr chi.Router) {
			rr.Use(middleware.Auth(sp.JWTCfg().AccessTokenSecretKey(), sp.Logger().Component("auth")))
			rr.Get("/network", playHandler.Network)
			rr.Put("/network", playHandler.SelectNetwork)
			rr.Route("/plays", func(pr chi.Router) {
				pr.Post("/", playHandler.Submit)
				pr.Get("/", playHandler.List)
				pr.Get("/events", playHandler.Events)
				pr.Post("/reconcile", playHandler.Reconcile)
				pr.Post("/resume", playHandler.Resume)
				pr.Post("/congratulation/ack", playHandler.AcknowledgeCongratulation)
				pr.Delete("/{key}", playHandler.Dismiss)
			})
		})

		sp.router = r
	}

	return sp.router
}

// Close Останавливает игры и закрывает соединения
func (sp *ServiceProvider) Close() {
	if sp.playServ != nil {
		sp.playServ.Close()
	}
	for _, c := range sp.ledgers {
		c.Close()
	}
	if sp.dbClient != nil {
		sp.dbClient.Close()
	}
}

func (sp *ServiceProvider) log() *logrus.Entry {
	return sp.Logger().Component("app")
}
