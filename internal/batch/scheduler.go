// Package batch runs many logins over a pool of workers, each worker with
// its own proxy.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gfauth/internal/auth"
	"gfauth/internal/logging"
	"gfauth/internal/transport"
)

// LoginFunc performs one login through proxyURL, which may be empty.
type LoginFunc func(ctx context.Context, account Account, proxyURL string, logger logging.Logger) (uuid.UUID, error)

type Result struct {
	Account Account
	Token   uuid.UUID
	Err     error
}

type Config struct {
	Workers    int
	Stagger    time.Duration
	MaxRetries int
}

type Scheduler struct {
	cfg         Config
	login       LoginFunc
	proxies     *transport.ProxyPool
	logger      logging.Logger
	workChan    chan Account
	resultsChan chan Result
	wg          sync.WaitGroup
	cancel      context.CancelFunc
}

// NewScheduler builds a scheduler. proxies may be nil to log in directly.
func NewScheduler(cfg Config, login LoginFunc, proxies *transport.ProxyPool, logger logging.Logger) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scheduler{
		cfg:         cfg,
		login:       login,
		proxies:     proxies,
		logger:      logging.OrNop(logger),
		workChan:    make(chan Account, cfg.Workers*2),
		resultsChan: make(chan Result, cfg.Workers*2),
	}
}

func generateWorkerID() string {
	return uuid.New().String()[:8]
}

// start launches the workers, staggered by cfg.Stagger.
func (s *Scheduler) start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for i := range s.cfg.Workers {
		s.wg.Add(1)
		go s.runWorker(ctx, generateWorkerID())

		if s.cfg.Stagger > 0 && i < s.cfg.Workers-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.Stagger):
			}
		}
	}
}

func (s *Scheduler) runWorker(ctx context.Context, id string) {
	defer s.wg.Done()

	logger := logging.WithPrefix(s.logger, id)
	proxy := s.nextProxy(logger)

	for {
		select {
		case <-ctx.Done():
			return
		case account, ok := <-s.workChan:
			if !ok {
				return
			}

			result := Result{Account: account}
			for attempt := 0; ; attempt++ {
				logger.Log("Processing: %s", account.Email)
				result.Token, result.Err = s.login(ctx, account, proxy, logger)
				if result.Err == nil || attempt >= s.cfg.MaxRetries || !auth.IsRetryable(result.Err) || ctx.Err() != nil {
					break
				}
				logger.Log("Failed (attempt %d/%d): %v, rotating proxy...", attempt+1, s.cfg.MaxRetries+1, result.Err)
				proxy = s.nextProxy(logger)
			}

			select {
			case s.resultsChan <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Scheduler) nextProxy(logger logging.Logger) string {
	if s.proxies == nil {
		return ""
	}
	proxyURL, display := s.proxies.Next()
	logger.Log("Using proxy: %s", display)
	return proxyURL
}

// shutdown stops accepting work, waits for the workers and closes resultsChan.
func (s *Scheduler) shutdown() {
	close(s.workChan)
	s.wg.Wait()
	close(s.resultsChan)
	if s.cancel != nil {
		s.cancel()
	}
}

// Run logs every account in and returns the results in completion order. A
// Scheduler runs once.
func (s *Scheduler) Run(ctx context.Context, accounts []Account) []Result {
	s.start(ctx)

	go func() {
		defer s.shutdown()
		for _, account := range accounts {
			select {
			case s.workChan <- account:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, 0, len(accounts))
	for result := range s.resultsChan {
		results = append(results, result)
	}
	return results
}
