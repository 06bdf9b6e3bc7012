package worker

import (
	"context"
	"log"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/service"
)

// SalesCacheWorker keeps the Redis session-sales cache in step with the
// order stream: any order landing in or leaving a session triggers a
// recompute of that session's aggregate.
type SalesCacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	sessions     *service.SessionService
}

// NewSalesCacheWorker creates a new sales cache worker
func NewSalesCacheWorker(
	consumer *broker.Consumer,
	sessions *service.SessionService,
) *SalesCacheWorker {
	eventHandler := broker.NewEventHandler()
	w := &SalesCacheWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		sessions:     sessions,
	}

	eventHandler.OnOrderCompleted(w.handleOrderCompleted)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)

	return w
}

// Start starts the worker
func (w *SalesCacheWorker) Start(ctx context.Context) error {
	log.Println("Starting sales cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SalesCacheWorker) Stop() error {
	log.Println("Stopping sales cache worker...")
	return w.consumer.Close()
}

func (w *SalesCacheWorker) handleOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error {
	if event.SessionID == nil {
		return nil
	}
	if err := w.sessions.RefreshSessionSales(ctx, *event.SessionID); err != nil {
		log.Printf("Failed to refresh session sales: session=%d, err=%v", *event.SessionID, err)
	}
	return nil
}

func (w *SalesCacheWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	if event.SessionID == nil {
		return nil
	}
	if err := w.sessions.RefreshSessionSales(ctx, *event.SessionID); err != nil {
		log.Printf("Failed to refresh session sales: session=%d, err=%v", *event.SessionID, err)
	}
	return nil
}
