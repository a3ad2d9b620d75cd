package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"shopora-backend/internal/domains/order/model"
	"shopora-backend/internal/domains/order/service"
)

// stubOrderService cans the methods a test cares about; anything else
// falls through to the embedded nil interface and panics.
type stubOrderService struct {
	service.OrderService
	deliverErr error
}

func (s *stubOrderService) DeliverOrder(ctx context.Context, orderID, deliveredBy uuid.UUID) (*model.Order, error) {
	if s.deliverErr != nil {
		return nil, s.deliverErr
	}
	return &model.Order{ID: orderID, Status: model.StatusDelivered}, nil
}

func deliverRequest(t *testing.T, svc service.OrderService) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orderID := uuid.New()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/orders/"+orderID.String()+"/deliver", nil)
	c.Set("userID", uuid.New())
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	NewOrderHandler(svc, "whsec_test").DeliverOrder(c)
	return w
}

func TestDeliverOrder_NotPlacedReadsAsNotFound(t *testing.T) {
	// Only a Placed order is deliverable; any other state answers
	// exactly like a missing order.
	w := deliverRequest(t, &stubOrderService{
		deliverErr: model.NewInvalidTransitionError(model.StatusDelivered, model.StatusDelivered),
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliverOrder_MissingOrderIsNotFound(t *testing.T) {
	w := deliverRequest(t, &stubOrderService{deliverErr: model.NewOrderNotFoundError()})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliverOrder_Success(t *testing.T) {
	w := deliverRequest(t, &stubOrderService{})

	assert.Equal(t, http.StatusOK, w.Code)
}
