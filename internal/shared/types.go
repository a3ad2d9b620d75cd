package shared

import "github.com/google/uuid"

// Task types routed through asynq. Naming convention: "<domain>:<action>".
const (
	TypeCouponExpireSweep      = "coupon:expire_sweep"
	TypeOrderConfirmationEmail = "order:confirmation_email"
	TypeOrderQRSummary         = "order:qr_summary"
	TypeProductProcessImage    = "product:process_image"
)

// Queue names in priority order. The worker weights are configured in
// cmd/worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// CouponExpireSweepPayload is empty on purpose. The sweep scans the coupon
// table itself, the task only triggers the run.
type CouponExpireSweepPayload struct{}

// OrderConfirmationEmailPayload carries what the mailer needs so the job
// does not have to join back to the user table.
type OrderConfirmationEmailPayload struct {
	OrderID uuid.UUID `json:"orderId"`
	UserID  uuid.UUID `json:"userId"`
	Email   string    `json:"email"`
	Total   string    `json:"total"`
}

// OrderQRSummaryPayload asks the worker to render and store a QR code
// pointing at the order summary page.
type OrderQRSummaryPayload struct {
	OrderID uuid.UUID `json:"orderId"`
}

// ProductProcessImagePayload carries the object key of a freshly uploaded
// product image.
type ProductProcessImagePayload struct {
	ProductID uuid.UUID `json:"productId"`
	ObjectKey string    `json:"objectKey"`
}
