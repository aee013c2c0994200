package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/nulzo/calx-web/internal/store"
	"github.com/nulzo/calx-web/internal/store/model"
	"go.uber.org/zap"
)

// Ingestor handles the asynchronous persistence of fetch attempts.
type Ingestor interface {
	Log(attempt *model.FetchAttempt)
	Start(ctx context.Context)
	Stop()
}

// Options tune buffering. Zero values fall back to the defaults.
type Options struct {
	BufferSize int
	BatchSize  int
	FlushEvery time.Duration
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	logChan   chan *model.FetchAttempt
	batchSize int
	flushTime time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

func NewIngestor(logger *zap.Logger, repo store.Repository, opts Options) Ingestor {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = 5 * time.Second
	}
	return &ingestor{
		logger:    logger,
		repo:      repo,
		logChan:   make(chan *model.FetchAttempt, opts.BufferSize),
		batchSize: opts.BatchSize,
		flushTime: opts.FlushEvery,
		done:      make(chan struct{}),
	}
}

func (i *ingestor) Log(attempt *model.FetchAttempt) {
	select {
	case i.logChan <- attempt:
	default:
		i.logger.Warn("Diagnostics buffer full, dropping fetch attempt",
			zap.String("attempt_id", attempt.ID),
			zap.String("provider", attempt.ProviderID),
		)
	}
}

// Start runs the worker. It keeps accepting attempts after ctx is done;
// only Stop ends it.
func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

// Stop closes the buffer and blocks until the pending batch is written.
func (i *ingestor) Stop() {
	i.stopOnce.Do(func() {
		close(i.logChan)
	})
	<-i.done
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.FetchAttempt, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		err := i.repo.WithTx(context.Background(), func(tx store.Repository) error {
			for _, attempt := range batch {
				if err := tx.Attempts().Log(context.Background(), attempt); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			i.logger.Error("Failed to persist fetch attempts", zap.Int("batch", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	// cancellation only forces a flush; attempts logged while the server
	// drains are still written until Stop closes the buffer
	ctxDone := ctx.Done()
	for {
		select {
		case attempt, ok := <-i.logChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, attempt)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctxDone:
			ctxDone = nil
			flush()
		}
	}
}

type nopIngestor struct{}

// NewNopIngestor is used when persistence is disabled.
func NewNopIngestor() Ingestor { return nopIngestor{} }

func (nopIngestor) Log(*model.FetchAttempt) {}
func (nopIngestor) Start(context.Context)  {}
func (nopIngestor) Stop()                   {}
