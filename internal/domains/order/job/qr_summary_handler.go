package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	qrcode "github.com/skip2/go-qrcode"

	"shopora-backend/internal/domains/order/repository"
	"shopora-backend/internal/infrastructure/storage"
	"shopora-backend/internal/shared"
	"shopora-backend/pkg/logger"
)

// QRSummaryHandler renders a QR code that links to the order summary
// page, stores the PNG and records its URL on the order.
type QRSummaryHandler struct {
	orders     repository.OrderRepository
	storage    *storage.MinIOStorage
	summaryURL string // base URL the QR code points at
}

func NewQRSummaryHandler(orders repository.OrderRepository, storage *storage.MinIOStorage, summaryURL string) *QRSummaryHandler {
	return &QRSummaryHandler{
		orders:     orders,
		storage:    storage,
		summaryURL: summaryURL,
	}
}

func (h *QRSummaryHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.OrderQRSummaryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	// Skip if the order disappeared (cancelled and purged, tests, etc.)
	if _, err := h.orders.GetByID(ctx, payload.OrderID); err != nil {
		logger.Warn("Skipping QR summary for missing order", map[string]interface{}{
			"order_id": payload.OrderID,
		})
		return nil
	}

	link := fmt.Sprintf("%s/orders/%s", h.summaryURL, payload.OrderID)

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to render QR code: %w", err)
	}

	key := fmt.Sprintf("orders/%s/qr.png", payload.OrderID)
	url, err := h.storage.Upload(ctx, key, png, "image/png")
	if err != nil {
		return fmt.Errorf("failed to upload QR code: %w", err)
	}

	if err := h.orders.SetQRSummaryURL(ctx, payload.OrderID, url); err != nil {
		return fmt.Errorf("failed to record QR url: %w", err)
	}

	logger.Info("QR summary generated", map[string]interface{}{
		"order_id": payload.OrderID,
		"url":      url,
	})

	return nil
}
