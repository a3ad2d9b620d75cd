package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type CreateCouponRequest struct {
	Code     string    `json:"code"`
	Amount   float64   `json:"amount"`
	Type     string    `json:"type"`
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`
}

func (r CreateCouponRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&r.Type, validation.Required, validation.In(TypeFixed, TypePercentage)),
		validation.Field(&r.FromDate, validation.Required),
		validation.Field(&r.ToDate, validation.Required, validation.By(func(value interface{}) error {
			to := value.(time.Time)
			if !to.After(r.FromDate) {
				return validation.NewError("validation_date_order", "toDate must be after fromDate")
			}
			return nil
		})),
	)
}

type AssignCouponRequest struct {
	UserID   uuid.UUID `json:"userId"`
	MaxUsage int       `json:"maxUsage"`
}

func (r AssignCouponRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.By(func(value interface{}) error {
			if value.(uuid.UUID) == uuid.Nil {
				return validation.NewError("validation_uuid", "userId must be a valid UUID")
			}
			return nil
		})),
		validation.Field(&r.MaxUsage, validation.Required, validation.Min(1)),
	)
}
