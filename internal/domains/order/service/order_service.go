package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	cartModel "shopora-backend/internal/domains/cart/model"
	cartRepo "shopora-backend/internal/domains/cart/repository"
	couponModel "shopora-backend/internal/domains/coupon/model"
	couponRepo "shopora-backend/internal/domains/coupon/repository"
	couponService "shopora-backend/internal/domains/coupon/service"
	"shopora-backend/internal/domains/order/model"
	"shopora-backend/internal/domains/order/repository"
	"shopora-backend/internal/domains/payment/gateway"
	productModel "shopora-backend/internal/domains/product/model"
	productRepo "shopora-backend/internal/domains/product/repository"
	productService "shopora-backend/internal/domains/product/service"
	userRepo "shopora-backend/internal/domains/user/repository"
	"shopora-backend/internal/infrastructure/cache"
	"shopora-backend/internal/infrastructure/email"
	"shopora-backend/internal/infrastructure/queue"
	"shopora-backend/internal/shared"
	"shopora-backend/pkg/logger"
)

// =====================================================
// ORDER SERVICE
// =====================================================
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.Order, error)
	ConvertCartToOrder(ctx context.Context, userID uuid.UUID, req model.ConvertCartRequest) (*model.Order, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error)

	DeliverOrder(ctx context.Context, orderID, deliveredBy uuid.UUID) (*model.Order, error)
	PayOrderWithStripe(ctx context.Context, orderID, userID uuid.UUID) (*model.PayOrderResponse, error)
	ConfirmPayment(ctx context.Context, event model.WebhookEvent) error
	RefundOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
}

type orderService struct {
	orders   repository.OrderRepository
	products productRepo.ProductRepository
	checker  productService.ProductService
	coupons  couponService.CouponService
	couponDB couponRepo.CouponRepository
	carts    cartRepo.CartRepository
	users    userRepo.UserRepository

	gateway     gateway.PaymentGateway
	idempotency cache.IdempotencyGuard
	queueClient *queue.Client
	mailer      email.EmailService

	// now is injected so the cancellation window is testable.
	now func() time.Time
}

type Deps struct {
	Orders      repository.OrderRepository
	Products    productRepo.ProductRepository
	Checker     productService.ProductService
	Coupons     couponService.CouponService
	CouponDB    couponRepo.CouponRepository
	Carts       cartRepo.CartRepository
	Users       userRepo.UserRepository
	Gateway     gateway.PaymentGateway
	Idempotency cache.IdempotencyGuard
	QueueClient *queue.Client
	Mailer      email.EmailService
	Now         func() time.Time
}

func NewOrderService(deps Deps) OrderService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &orderService{
		orders:      deps.Orders,
		products:    deps.Products,
		checker:     deps.Checker,
		coupons:     deps.Coupons,
		couponDB:    deps.CouponDB,
		carts:       deps.Carts,
		users:       deps.Users,
		gateway:     deps.Gateway,
		idempotency: deps.Idempotency,
		queueClient: deps.QueueClient,
		mailer:      deps.Mailer,
		now:         now,
	}
}

// =====================================================
// CREATE ORDER
// =====================================================

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, model.NewEmptyOrderError()
	}

	// STEP 1: Validate the coupon before touching anything else
	discount, err := s.validateCoupon(ctx, req.CouponCode, userID)
	if err != nil {
		return nil, err
	}

	// STEP 2: Check availability and price the lines
	requested := make([]productModel.RequestedItem, 0, len(req.Items))
	for _, item := range req.Items {
		requested = append(requested, productModel.RequestedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	available, err := s.checker.CheckAvailability(ctx, requested)
	if err != nil {
		return nil, err
	}

	// STEP 3: Price the order from the availability snapshot. Prices
	// never come from the client.
	shippingPrice := sumSubtotals(available)
	total, err := model.ComputeTotal(shippingPrice, discount)
	if err != nil {
		return nil, err
	}

	// STEP 4: Build the order
	order := s.buildOrder(userID, req.ShippingAddress, req.PhoneNumbers, shippingPrice, total, discount, req.PaymentMethod)
	order.Items = buildOrderItems(order.ID, available)

	// STEP 5: Persist everything in one transaction
	if err := s.persistOrder(ctx, order, discount, nil); err != nil {
		return nil, err
	}

	// STEP 6: Post-commit background work
	s.enqueuePostOrderJobs(ctx, order)

	logger.Info("Order created", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  userID,
		"status":   order.Status,
		"total":    order.TotalPrice.String(),
	})

	return order, nil
}

// =====================================================
// CONVERT CART TO ORDER
// =====================================================

func (s *orderService) ConvertCartToOrder(ctx context.Context, userID uuid.UUID, req model.ConvertCartRequest) (*model.Order, error) {
	// STEP 1: Load the cart; an empty cart cannot become an order
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		if err == cartModel.ErrCartNotFound {
			return nil, model.NewEmptyOrderError()
		}
		return nil, model.NewDatabaseError("load cart", err)
	}
	if cart.IsEmpty() {
		return nil, model.NewEmptyOrderError()
	}

	// STEP 2: Validate the coupon
	discount, err := s.validateCoupon(ctx, req.CouponCode, userID)
	if err != nil {
		return nil, err
	}

	// STEP 3: Re-check availability against live stock
	requested := make([]productModel.RequestedItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		requested = append(requested, productModel.RequestedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	available, err := s.checker.CheckAvailability(ctx, requested)
	if err != nil {
		return nil, err
	}

	// STEP 4: Price from the cart's snapshot subtotal and build
	shippingPrice := cart.Subtotal()
	total, err := model.ComputeTotal(shippingPrice, discount)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(userID, req.ShippingAddress, req.PhoneNumbers, shippingPrice, total, discount, req.PaymentMethod)
	order.Items = buildOrderItems(order.ID, available)

	// STEP 5: Persist order and destroy the cart in the same transaction
	if err := s.persistOrder(ctx, order, discount, &cart.ID); err != nil {
		return nil, err
	}

	s.enqueuePostOrderJobs(ctx, order)

	logger.Info("Cart converted to order", map[string]interface{}{
		"order_id": order.ID,
		"cart_id":  cart.ID,
		"user_id":  userID,
	})

	return order, nil
}

// validateCoupon is a no-op for an empty code.
func (s *orderService) validateCoupon(ctx context.Context, code string, userID uuid.UUID) (*couponModel.Discount, error) {
	if code == "" {
		return nil, nil
	}
	return s.coupons.Validate(ctx, code, userID)
}

func (s *orderService) buildOrder(
	userID uuid.UUID,
	addr model.ShippingAddressRequest,
	phones []string,
	shippingPrice, total decimal.Decimal,
	discount *couponModel.Discount,
	paymentMethod string,
) *model.Order {
	order := &model.Order{
		ID:     uuid.New(),
		UserID: userID,
		ShippingAddress: model.ShippingAddress{
			Address:    addr.Address,
			City:       addr.City,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
		},
		PhoneNumbers:  phones,
		ShippingPrice: shippingPrice,
		TotalPrice:    total,
		PaymentMethod: paymentMethod,
		Status:        model.InitialStatus(paymentMethod),
	}

	if discount != nil {
		couponID := discount.CouponID
		order.CouponID = &couponID
	}

	return order
}

// sumSubtotals totals the priced availability lines.
func sumSubtotals(available []productModel.AvailableItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range available {
		total = total.Add(line.Subtotal)
	}
	return total
}

func buildOrderItems(orderID uuid.UUID, available []productModel.AvailableItem) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(available))
	for _, line := range available {
		items = append(items, model.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: line.Product.ID,
			Title:     line.Product.Name,
			UnitPrice: line.Product.EffectivePrice(),
			Quantity:  line.Quantity,
		})
	}
	return items
}

// persistOrder writes the order, its items, the stock mutations, the
// coupon usage and (optionally) the cart deletion as one transaction.
// Stock is decremented and sold incremented at creation time, whatever
// the payment method, so cancellation can reverse both symmetrically.
func (s *orderService) persistOrder(ctx context.Context, order *model.Order, discount *couponModel.Discount, cartID *uuid.UUID) error {
	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return model.NewTransactionError("begin", err)
	}
	defer func() {
		// Rollback is a no-op after commit
		_ = s.orders.RollbackTx(ctx, tx)
	}()

	if err := s.orders.CreateOrderWithTx(ctx, tx, order); err != nil {
		return err
	}

	if err := s.orders.CreateOrderItemsWithTx(ctx, tx, order.Items); err != nil {
		return err
	}

	for _, item := range order.Items {
		if err := s.products.ReduceStockWithTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if discount != nil {
		if err := s.couponDB.IncrementUsageWithTx(ctx, tx, discount.CouponID, order.UserID); err != nil {
			return model.NewDatabaseError("consume coupon usage", err)
		}
	}

	if cartID != nil {
		if err := s.carts.DeleteCartWithTx(ctx, tx, *cartID); err != nil {
			return model.NewDatabaseError("delete cart", err)
		}
	}

	if err := s.orders.CommitTx(ctx, tx); err != nil {
		return model.NewTransactionError("commit", err)
	}

	return nil
}

// enqueuePostOrderJobs runs only after a successful commit. Failures are
// logged, never surfaced: the order exists either way.
func (s *orderService) enqueuePostOrderJobs(ctx context.Context, order *model.Order) {
	if s.queueClient == nil {
		return
	}

	err := s.queueClient.Enqueue(shared.TypeOrderQRSummary, shared.OrderQRSummaryPayload{
		OrderID: order.ID,
	}, shared.QueueLow)
	if err != nil {
		logger.Error("Failed to enqueue QR summary job", err)
	}

	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		logger.Error("Failed to load user for confirmation email", err)
		return
	}

	err = s.queueClient.Enqueue(shared.TypeOrderConfirmationEmail, shared.OrderConfirmationEmailPayload{
		OrderID: order.ID,
		UserID:  order.UserID,
		Email:   user.Email,
		Total:   order.TotalPrice.String(),
	}, shared.QueueDefault)
	if err != nil {
		logger.Error("Failed to enqueue confirmation email job", err)
	}
}

// =====================================================
// READS
// =====================================================

func (s *orderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	return s.orders.GetByIDAndUserID(ctx, orderID, userID)
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByUserID(ctx, userID, page, limit)
}

// =====================================================
// DELIVER ORDER
// =====================================================

func (s *orderService) DeliverOrder(ctx context.Context, orderID, deliveredBy uuid.UUID) (*model.Order, error) {
	ok, err := s.orders.MarkDelivered(ctx, orderID, deliveredBy, s.now())
	if err != nil {
		return nil, err
	}

	if !ok {
		// Distinguish "no such order" from "wrong state"
		order, getErr := s.orders.GetByID(ctx, orderID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, model.NewInvalidTransitionError(order.Status, model.StatusDelivered)
	}

	logger.Info("Order delivered", map[string]interface{}{
		"order_id":     orderID,
		"delivered_by": deliveredBy,
	})

	return s.orders.GetByID(ctx, orderID)
}

// =====================================================
// PAY ORDER WITH STRIPE
// =====================================================

func (s *orderService) PayOrderWithStripe(ctx context.Context, orderID, userID uuid.UUID) (*model.PayOrderResponse, error) {
	order, err := s.orders.GetByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if order.PaymentMethod != model.PaymentMethodCard {
		return nil, model.NewNotCardOrderError()
	}
	if order.Status != model.StatusPending {
		return nil, model.NewInvalidTransitionError(order.Status, model.StatusPaid)
	}

	// STEP 1: Mirror the order's coupon on the gateway so hosted
	// checkout shows the discounted amount
	gatewayCouponID, err := s.mirrorCoupon(ctx, order)
	if err != nil {
		return nil, err
	}

	// STEP 2: Create the checkout session. The line items alone sum to
	// the order's pre-discount price.
	lineItems := make([]gateway.CheckoutLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, gateway.CheckoutLineItem{
			Name:       item.Title,
			UnitAmount: toMinorUnits(item.UnitPrice),
			Quantity:   item.Quantity,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutSessionParams{
		OrderID:  order.ID,
		Items:    lineItems,
		CouponID: gatewayCouponID,
	})
	if err != nil {
		return nil, model.NewPaymentGatewayError(err)
	}

	// STEP 3: Make sure we have a payment intent to track
	intentID := session.PaymentIntentID
	if intentID == "" {
		intent, err := s.gateway.CreatePaymentIntent(ctx, gateway.PaymentIntentParams{
			OrderID: order.ID,
			Amount:  toMinorUnits(order.TotalPrice),
		})
		if err != nil {
			return nil, model.NewPaymentGatewayError(err)
		}
		intentID = intent.ID
	}

	// STEP 4: Store the intent on the order for webhook correlation
	if err := s.orders.SetPaymentIntent(ctx, order.ID, intentID); err != nil {
		return nil, err
	}

	return &model.PayOrderResponse{
		CheckoutURL:     session.URL,
		SessionID:       session.ID,
		PaymentIntentID: intentID,
	}, nil
}

// mirrorCoupon creates the gateway-side twin of the order's coupon.
// Returns "" when the order carries no coupon.
func (s *orderService) mirrorCoupon(ctx context.Context, order *model.Order) (string, error) {
	if order.CouponID == nil {
		return "", nil
	}

	coupon, err := s.couponDB.GetByID(ctx, *order.CouponID)
	if err != nil {
		return "", err
	}

	params := gateway.CouponParams{}
	if coupon.IsFixed() {
		amountOff := toMinorUnits(coupon.Amount)
		params.AmountOff = &amountOff
	} else {
		percentOff, _ := coupon.Amount.Float64()
		params.PercentOff = &percentOff
	}

	gc, err := s.gateway.CreateCoupon(ctx, params)
	if err != nil {
		return "", model.NewPaymentGatewayError(err)
	}

	return gc.ID, nil
}

// =====================================================
// CONFIRM PAYMENT (WEBHOOK)
// =====================================================

// ConfirmPayment processes a payment webhook delivery. Duplicate
// deliveries are absorbed: the redis idempotency key catches most
// replays, and the conditional Pending->Paid update catches the rest.
func (s *orderService) ConfirmPayment(ctx context.Context, event model.WebhookEvent) error {
	orderID, err := uuid.Parse(event.Data.Object.Metadata.OrderID)
	if err != nil {
		return model.NewOrderNotFoundError()
	}

	intentID := event.Data.Object.ID
	idempotencyKey := "payment:intent:" + intentID

	// STEP 1: Idempotency check
	first, err := s.idempotency.MarkProcessed(ctx, idempotencyKey)
	if err != nil {
		// Redis being down must not drop a payment; the conditional
		// update below still guarantees exactly-once state change.
		logger.Error("Idempotency check failed, falling through", err)
	} else if !first {
		logger.Info("Duplicate payment webhook ignored", map[string]interface{}{
			"intent_id": intentID,
			"order_id":  orderID,
		})
		return nil
	}

	// STEP 2: Conditional Pending -> Paid. A transient failure here must
	// not leave the key claimed, or the provider's retries would be
	// swallowed while the order stays Pending.
	ok, err := s.orders.MarkPaid(ctx, orderID, s.now())
	if err != nil {
		if relErr := s.idempotency.Release(ctx, idempotencyKey); relErr != nil {
			logger.Error("Failed to release idempotency key", relErr)
		}
		return err
	}
	if !ok {
		logger.Info("Payment webhook for non-pending order ignored", map[string]interface{}{
			"order_id": orderID,
		})
		return nil
	}

	// STEP 3: Confirm the intent with the gateway. The order is already
	// Paid; a gateway hiccup here is logged, not bounced back to the
	// provider (which would trigger redeliveries we'd ignore anyway).
	if _, err := s.gateway.ConfirmPaymentIntent(ctx, intentID); err != nil {
		logger.Error("Failed to confirm payment intent", err)
	}

	logger.Info("Order paid", map[string]interface{}{
		"order_id":  orderID,
		"intent_id": intentID,
	})

	return nil
}

// =====================================================
// REFUND ORDER
// =====================================================

func (s *orderService) RefundOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.StatusPaid {
		return nil, model.NewInvalidTransitionError(order.Status, model.StatusRefunded)
	}
	if order.PaymentIntentID == nil {
		return nil, model.NewMissingPaymentIntentError()
	}

	// Gateway first: if the refund fails the order stays Paid
	_, err = s.gateway.RefundPayment(ctx, gateway.RefundParams{
		PaymentIntentID: *order.PaymentIntentID,
		Amount:          toMinorUnits(order.TotalPrice),
	})
	if err != nil {
		return nil, model.NewPaymentGatewayError(err)
	}

	ok, err := s.orders.MarkRefunded(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another refund. The gateway dedupes refunds
		// on its side, so just report the conflict.
		return nil, model.NewInvalidTransitionError(model.StatusRefunded, model.StatusRefunded)
	}

	logger.Info("Order refunded", map[string]interface{}{
		"order_id": orderID,
		"amount":   order.TotalPrice.String(),
	})

	s.sendRefundEmail(ctx, order)

	return s.orders.GetByID(ctx, orderID)
}

// sendRefundEmail is best effort; the refund already happened.
func (s *orderService) sendRefundEmail(ctx context.Context, order *model.Order) {
	if s.mailer == nil {
		return
	}

	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		logger.Error("Failed to load user for refund email", err)
		return
	}

	err = s.mailer.SendOrderRefundEmail(ctx, email.OrderRefundData{
		Email:   user.Email,
		OrderID: order.ID.String(),
		Amount:  order.TotalPrice.String(),
	})
	if err != nil {
		logger.Error("Failed to send refund email", err)
	}
}

// =====================================================
// CANCEL ORDER
// =====================================================

func (s *orderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.StatusPending && order.Status != model.StatusPlaced {
		return nil, model.NewInvalidTransitionError(order.Status, model.StatusCancelled)
	}
	if !order.IsCancellable(s.now()) {
		return nil, model.NewCancellationExpiredError()
	}

	// Cancel and restore stock in one transaction so a crash cannot
	// leave a cancelled order with consumed inventory.
	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, model.NewTransactionError("begin", err)
	}
	defer func() {
		_ = s.orders.RollbackTx(ctx, tx)
	}()

	ok, err := s.orders.MarkCancelledWithTx(ctx, tx, orderID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewInvalidTransitionError(order.Status, model.StatusCancelled)
	}

	if err := s.restoreStock(ctx, tx, order.Items); err != nil {
		return nil, err
	}

	if err := s.orders.CommitTx(ctx, tx); err != nil {
		return nil, model.NewTransactionError("commit", err)
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id": orderID,
		"user_id":  userID,
	})

	return s.orders.GetByID(ctx, orderID)
}

func (s *orderService) restoreStock(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	for _, item := range items {
		if err := s.products.RestoreStockWithTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// toMinorUnits converts a decimal currency amount to the smallest
// currency unit the gateway expects.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(oneHundredInt).Round(0).IntPart()
}

var oneHundredInt = decimal.NewFromInt(100)
