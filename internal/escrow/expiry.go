package escrow

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExpiryWorker periodically cancels open requests whose escrow window lapsed.
// The ledger refunds the escrowed XRP on its own once CancelAfter passes;
// this keeps the request records in step with it.
type ExpiryWorker struct {
	service *Service
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
}

func NewExpiryWorker(service *Service, logger *zap.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		service: service,
		cron:    cron.New(),
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Start schedules the sweep on a standard 5-field cron expression.
func (w *ExpiryWorker) Start(spec string) error {
	if spec == "" {
		spec = "*/5 * * * *"
	}
	if _, err := w.cron.AddFunc(spec, w.sweep); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("escrow expiry worker started", zap.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (w *ExpiryWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *ExpiryWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	cancelled, err := w.service.CancelExpired(ctx)
	if err != nil {
		w.logger.Error("escrow expiry sweep failed", zap.Error(err))
		return
	}
	if cancelled > 0 {
		w.logger.Info("expired purchase requests cancelled", zap.Int("count", cancelled))
	}
}
