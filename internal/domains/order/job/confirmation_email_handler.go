package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"shopora-backend/internal/infrastructure/email"
	"shopora-backend/internal/shared"
)

// ConfirmationEmailHandler sends the order confirmation mail. Runs off
// the request path; asynq retries on SMTP failures.
type ConfirmationEmailHandler struct {
	email email.EmailService
}

func NewConfirmationEmailHandler(email email.EmailService) *ConfirmationEmailHandler {
	return &ConfirmationEmailHandler{email: email}
}

func (h *ConfirmationEmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.OrderConfirmationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return h.email.SendOrderConfirmationEmail(ctx, email.OrderConfirmationData{
		Email:   payload.Email,
		OrderID: payload.OrderID.String(),
		Total:   payload.Total,
	})
}
