package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hibiken/asynq"

	"shopora-backend/internal/infrastructure/storage"
	"shopora-backend/internal/shared"
	"shopora-backend/pkg/logger"
)

// ProcessImageHandler validates freshly uploaded product images in the
// background. Broken uploads are deleted so the catalogue never serves
// an unreadable file.
type ProcessImageHandler struct {
	storage *storage.MinIOStorage
}

func NewProcessImageHandler(storage *storage.MinIOStorage) *ProcessImageHandler {
	return &ProcessImageHandler{storage: storage}
}

func (h *ProcessImageHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.ProductProcessImagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	data, err := h.storage.Download(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to download image %s: %w", payload.ObjectKey, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Removing unreadable product image", map[string]interface{}{
			"product_id": payload.ProductID,
			"object_key": payload.ObjectKey,
			"error":      err.Error(),
		})
		return h.storage.Delete(ctx, payload.ObjectKey)
	}

	logger.Info("Product image processed", map[string]interface{}{
		"product_id": payload.ProductID,
		"object_key": payload.ObjectKey,
		"format":     format,
		"width":      cfg.Width,
		"height":     cfg.Height,
	})

	return nil
}
