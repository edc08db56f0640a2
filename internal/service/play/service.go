package play

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"xbit_backend/internal/client"
	"xbit_backend/internal/model"
	"xbit_backend/internal/repository"
	"xbit_backend/internal/service"
	"xbit_backend/internal/service/pacer"
	"xbit_backend/internal/service/poller"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config Параметры жизненного цикла игр
type Config struct {
	Poll            poller.Config
	DisplayCapacity int           // Сколько игр держать в коллекции
	FadeAfter       time.Duration // Через сколько после завершения игра может быть убрана
	ResumeExpiry    time.Duration // Незавершенная игра старше этого не восстанавливается
	DefaultChainID  int64
}

// Network Клиент сети и общий для ее опросов лимитер (может быть nil)
type Network struct {
	Ledger  client.LedgerClient
	Limiter *rate.Limiter
}

// Deps Зависимости сервиса игр
type Deps struct {
	Networks  map[int64]Network
	Preflight service.PreflightService
	Tables    repository.TableRepository
	Prices    service.PriceService
	Plays     repository.PlayStateRepository
	Invalid   repository.InvalidPlayRepository
	Pending   repository.PendingPlayRepository
	TxManager trm.Manager
	Pacer     pacer.Pacer
}

type network struct {
	ledger     client.LedgerClient
	supervisor *poller.Supervisor
}

type serv struct {
	networks  map[int64]*network
	preflight service.PreflightService
	tables    repository.TableRepository
	prices    service.PriceService
	plays     repository.PlayStateRepository
	invalid   repository.InvalidPlayRepository
	pending   repository.PendingPlayRepository
	txManager trm.Manager
	pacer     pacer.Pacer
	cfg       Config
	log       *logrus.Entry

	// Жизненные циклы игр не зависят от контекста запроса, который их создал
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	defaultChain  int64
	selected      map[string]int64     // сессия -> выбранная сеть
	displayed     map[string]uuid.UUID // сессия -> игра, чей результат сейчас показан
	congratulated map[uuid.UUID]struct{}
}

// NewPlayService Сервис жизненного цикла игр для всех настроенных сетей
func NewPlayService(deps Deps, cfg Config, log *logrus.Entry) (service.PlayService, error) {
	if len(deps.Networks) == 0 {
		return nil, fmt.Errorf("play service: no networks configured")
	}
	if deps.Pacer == nil {
		deps.Pacer = pacer.Immediate{}
	}
	if deps.TxManager == nil {
		deps.TxManager = repository.NopTxManager{}
	}

	networks := make(map[int64]*network, len(deps.Networks))
	chainIDs := make([]int64, 0, len(deps.Networks))
	for chainID, n := range deps.Networks {
		networks[chainID] = &network{
			ledger:     n.Ledger,
			supervisor: poller.New(n.Ledger, cfg.Poll, n.Limiter, log.WithField("chain_id", chainID)),
		}
		chainIDs = append(chainIDs, chainID)
	}
	sort.Slice(chainIDs, func(i, j int) bool { return chainIDs[i] < chainIDs[j] })

	defaultChain := cfg.DefaultChainID
	if _, ok := networks[defaultChain]; !ok {
		defaultChain = chainIDs[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &serv{
		networks:      networks,
		preflight:     deps.Preflight,
		tables:        deps.Tables,
		prices:        deps.Prices,
		plays:         deps.Plays,
		invalid:       deps.Invalid,
		pending:       deps.Pending,
		txManager:     deps.TxManager,
		pacer:         deps.Pacer,
		cfg:           cfg,
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
		defaultChain:  defaultChain,
		selected:      make(map[string]int64),
		displayed:     make(map[string]uuid.UUID),
		congratulated: make(map[uuid.UUID]struct{}),
	}, nil
}

func (s *serv) network(chainID int64) (*network, error) {
	n, ok := s.networks[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownNetwork, chainID)
	}
	return n, nil
}

// Close Останавливает опросы и ждет завершения горутин.
// Незавершенные игры не помечаются невалидными и восстановятся при следующем запуске.
func (s *serv) Close() {
	s.cancel()
	s.wg.Wait()
}
