package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPlaced, InitialStatus(PaymentMethodCash))
	assert.Equal(t, StatusPending, InitialStatus(PaymentMethodCard))
}

func TestIsCancellable(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		status    string
		createdAt time.Time
		now       time.Time
		want      bool
	}{
		{
			name:      "pending order within window",
			status:    StatusPending,
			createdAt: base,
			now:       base.Add(2 * time.Hour),
			want:      true,
		},
		{
			name:      "placed order just inside window",
			status:    StatusPlaced,
			createdAt: base,
			now:       base.Add(CancellationWindow - time.Second),
			want:      true,
		},
		{
			name:      "placed order at window boundary",
			status:    StatusPlaced,
			createdAt: base,
			now:       base.Add(CancellationWindow),
			want:      false,
		},
		{
			name:      "paid order is never cancellable",
			status:    StatusPaid,
			createdAt: base,
			now:       base.Add(time.Minute),
			want:      false,
		},
		{
			name:      "delivered order is never cancellable",
			status:    StatusDelivered,
			createdAt: base,
			now:       base.Add(time.Minute),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Status: tt.status, CreatedAt: tt.createdAt}
			assert.Equal(t, tt.want, order.IsCancellable(tt.now))
		})
	}
}
