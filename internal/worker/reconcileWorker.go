package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/ds124wfegd/hotel-booking/pkg/queue"

	"github.com/sirupsen/logrus"
)

// PaymentReconcileWorker — страховочный контур платёжной сверки.
// Основной путь — отложенные задачи очереди, таймер подбирает платежи,
// задачи которых потерялись.
type PaymentReconcileWorker struct {
	paymentService service.PaymentService
	interval       time.Duration
}

func NewPaymentReconcileWorker(paymentService service.PaymentService, interval time.Duration) *PaymentReconcileWorker {
	return &PaymentReconcileWorker{
		paymentService: paymentService,
		interval:       interval,
	}
}

func (w *PaymentReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Payment reconcile worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Payment reconcile worker stopped")
			return
		case <-ticker.C:
			w.reconcileStalePayments(ctx)
		}
	}
}

// reconcileStalePayments сверяет зависшие платежи с процессором
func (w *PaymentReconcileWorker) reconcileStalePayments(ctx context.Context) {
	logrus.Debug("Starting stale payments reconciliation")

	reconciled, err := w.paymentService.ReconcileStale(ctx)
	if err != nil {
		logrus.Errorf("Failed to reconcile stale payments: %v", err)
		return
	}

	if reconciled > 0 {
		logrus.Infof("Stale payments reconciliation completed: %d reconciled", reconciled)
	}
}

// HandleTask обрабатывает задачи платёжной сверки из очереди
func (w *PaymentReconcileWorker) HandleTask(ctx context.Context, task *queue.Task) error {
	switch task.Type {
	case service.TaskTypeReconcilePayment:
		paymentID := task.GetInt64("payment_id")
		logrus.Debugf("Reconciling payment %d from queue task %s", paymentID, task.ID)
		return w.paymentService.ReconcilePayment(ctx, paymentID)
	default:
		logrus.Warnf("Unknown task type %q, skipping", task.Type)
		return nil
	}
}
