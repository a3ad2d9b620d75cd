package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartModel "shopora-backend/internal/domains/cart/model"
	couponModel "shopora-backend/internal/domains/coupon/model"
	couponService "shopora-backend/internal/domains/coupon/service"
	"shopora-backend/internal/domains/order/model"
	"shopora-backend/internal/domains/payment/gateway/mock"
	productModel "shopora-backend/internal/domains/product/model"
	productService "shopora-backend/internal/domains/product/service"
	userModel "shopora-backend/internal/domains/user/model"
)

// =====================================================
// FAKES
// =====================================================

type fakeOrderRepo struct {
	orders  map[uuid.UUID]*model.Order
	commits int

	// markPaidFailures makes the next N MarkPaid calls fail.
	markPaidFailures int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (f *fakeOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }

func (f *fakeOrderRepo) CommitTx(ctx context.Context, tx pgx.Tx) error {
	f.commits++
	return nil
}

func (f *fakeOrderRepo) RollbackTx(ctx context.Context, tx pgx.Tx) error { return nil }

func (f *fakeOrderRepo) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	stored := *order
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	f.orders[order.ID] = &stored
	order.CreatedAt = stored.CreatedAt
	return nil
}

func (f *fakeOrderRepo) CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	if o, ok := f.orders[items[0].OrderID]; ok {
		o.Items = items
	}
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, model.NewOrderNotFoundError()
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, model.NewOrderNotFoundError()
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) MarkDelivered(ctx context.Context, orderID, deliveredBy uuid.UUID, at time.Time) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Status != model.StatusPlaced {
		return false, nil
	}
	o.Status = model.StatusDelivered
	o.DeliveredBy = &deliveredBy
	o.DeliveredAt = &at
	return true, nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	if f.markPaidFailures > 0 {
		f.markPaidFailures--
		return false, model.NewDatabaseError("mark paid", context.DeadlineExceeded)
	}
	o, ok := f.orders[orderID]
	if !ok || o.Status != model.StatusPending {
		return false, nil
	}
	o.Status = model.StatusPaid
	o.PaidAt = &at
	return true, nil
}

func (f *fakeOrderRepo) MarkRefunded(ctx context.Context, orderID uuid.UUID) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Status != model.StatusPaid {
		return false, nil
	}
	o.Status = model.StatusRefunded
	return true, nil
}

func (f *fakeOrderRepo) MarkCancelledWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, at time.Time) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || (o.Status != model.StatusPending && o.Status != model.StatusPlaced) {
		return false, nil
	}
	o.Status = model.StatusCancelled
	o.CancelledAt = &at
	return true, nil
}

func (f *fakeOrderRepo) SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return model.NewOrderNotFoundError()
	}
	o.PaymentIntentID = &intentID
	return nil
}

func (f *fakeOrderRepo) SetQRSummaryURL(ctx context.Context, orderID uuid.UUID, url string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return model.NewOrderNotFoundError()
	}
	o.QRSummaryURL = &url
	return nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*productModel.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*productModel.Product)}
}

func (f *fakeProductRepo) Create(ctx context.Context, p *productModel.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*productModel.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, productModel.NewProductNotFoundError(id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]productModel.Product, error) {
	var out []productModel.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) List(ctx context.Context, page, limit int) ([]productModel.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p *productModel.Product) error { return nil }
func (f *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error            { return nil }
func (f *fakeProductRepo) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	return nil
}

func (f *fakeProductRepo) ReduceStockWithTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return productModel.NewProductNotFoundError(productID)
	}
	if p.Stock < quantity {
		return productModel.NewInsufficientStockError(p.Name, p.Stock, quantity)
	}
	p.Stock -= quantity
	p.Sold += quantity
	return nil
}

func (f *fakeProductRepo) RestoreStockWithTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return productModel.NewProductNotFoundError(productID)
	}
	p.Stock += quantity
	p.Sold -= quantity
	return nil
}

type fakeCouponRepoForOrders struct {
	coupons     map[uuid.UUID]*couponModel.Coupon
	assignments map[string]*couponModel.CouponUser
	usageCalls  int
}

func newFakeCouponRepoForOrders() *fakeCouponRepoForOrders {
	return &fakeCouponRepoForOrders{
		coupons:     make(map[uuid.UUID]*couponModel.Coupon),
		assignments: make(map[string]*couponModel.CouponUser),
	}
}

func (f *fakeCouponRepoForOrders) Create(ctx context.Context, c *couponModel.Coupon) error {
	f.coupons[c.ID] = c
	return nil
}

func (f *fakeCouponRepoForOrders) GetByID(ctx context.Context, id uuid.UUID) (*couponModel.Coupon, error) {
	c, ok := f.coupons[id]
	if !ok {
		return nil, couponModel.NewCouponNotFoundError(id.String())
	}
	return c, nil
}

func (f *fakeCouponRepoForOrders) GetByCode(ctx context.Context, code string) (*couponModel.Coupon, error) {
	for _, c := range f.coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, couponModel.NewCouponNotFoundError(code)
}

func (f *fakeCouponRepoForOrders) List(ctx context.Context, page, limit int) ([]couponModel.Coupon, int64, error) {
	return nil, 0, nil
}

func (f *fakeCouponRepoForOrders) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeCouponRepoForOrders) CodeExists(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func (f *fakeCouponRepoForOrders) AssignToUser(ctx context.Context, a *couponModel.CouponUser) error {
	f.assignments[a.CouponID.String()+"/"+a.UserID.String()] = a
	return nil
}

func (f *fakeCouponRepoForOrders) GetAssignment(ctx context.Context, couponID, userID uuid.UUID) (*couponModel.CouponUser, error) {
	return f.assignments[couponID.String()+"/"+userID.String()], nil
}

func (f *fakeCouponRepoForOrders) IncrementUsageWithTx(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) error {
	f.usageCalls++
	a := f.assignments[couponID.String()+"/"+userID.String()]
	if a != nil {
		a.UsageCount++
	}
	return nil
}

func (f *fakeCouponRepoForOrders) ExpireOutdated(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeCartRepo struct {
	carts       map[uuid.UUID]*cartModel.Cart // by user ID
	deleteCalls int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[uuid.UUID]*cartModel.Cart)}
}

func (f *fakeCartRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*cartModel.Cart, error) {
	c, ok := f.carts[userID]
	if !ok {
		return nil, cartModel.ErrCartNotFound
	}
	return c, nil
}

func (f *fakeCartRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*cartModel.Cart, error) {
	return f.GetByUserID(ctx, userID)
}

func (f *fakeCartRepo) UpsertItem(ctx context.Context, item *cartModel.CartItem) error { return nil }
func (f *fakeCartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return nil
}

func (f *fakeCartRepo) DeleteCartWithTx(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	f.deleteCalls++
	for userID, c := range f.carts {
		if c.ID == cartID {
			delete(f.carts, userID)
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*userModel.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*userModel.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *userModel.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userModel.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, userModel.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	return nil, userModel.ErrUserNotFound
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

type fakeIdempotencyGuard struct {
	seen map[string]bool
}

func newFakeIdempotencyGuard() *fakeIdempotencyGuard {
	return &fakeIdempotencyGuard{seen: make(map[string]bool)}
}

func (f *fakeIdempotencyGuard) MarkProcessed(ctx context.Context, key string) (bool, error) {
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotencyGuard) Release(ctx context.Context, key string) error {
	delete(f.seen, key)
	return nil
}

// =====================================================
// FIXTURE
// =====================================================

type fixture struct {
	service  OrderService
	orders   *fakeOrderRepo
	products *fakeProductRepo
	coupons  *fakeCouponRepoForOrders
	carts    *fakeCartRepo
	users    *fakeUserRepo
	gateway  *mock.Gateway
	guard    *fakeIdempotencyGuard
	now      time.Time
	userID   uuid.UUID
}

var fixtureNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:   newFakeOrderRepo(),
		products: newFakeProductRepo(),
		coupons:  newFakeCouponRepoForOrders(),
		carts:    newFakeCartRepo(),
		users:    newFakeUserRepo(),
		gateway:  mock.New(),
		guard:    newFakeIdempotencyGuard(),
		now:      fixtureNow,
		userID:   uuid.New(),
	}

	f.users.users[f.userID] = &userModel.User{
		ID:    f.userID,
		Email: "buyer@example.com",
	}

	checker := productService.NewProductService(f.products, nil, nil)
	coupons := couponService.NewCouponServiceWithClock(f.coupons, func() time.Time { return f.now })

	f.service = NewOrderService(Deps{
		Orders:      f.orders,
		Products:    f.products,
		Checker:     checker,
		Coupons:     coupons,
		CouponDB:    f.coupons,
		Carts:       f.carts,
		Users:       f.users,
		Gateway:     f.gateway,
		Idempotency: f.guard,
		Now:         func() time.Time { return f.now },
	})

	return f
}

func (f *fixture) seedProduct(price float64, stock int) *productModel.Product {
	d := decimal.NewFromFloat(price)
	p := &productModel.Product{
		ID:           uuid.New(),
		Name:         "Widget",
		Price:        d,
		AppliedPrice: d,
		Stock:        stock,
	}
	f.products.products[p.ID] = p
	return p
}

func (f *fixture) seedCouponWithAssignment(code, kind string, amount int64) *couponModel.Coupon {
	c := &couponModel.Coupon{
		ID:       uuid.New(),
		Code:     code,
		Amount:   decimal.NewFromInt(amount),
		Type:     kind,
		FromDate: f.now.Add(-time.Hour),
		ToDate:   f.now.Add(time.Hour),
		Status:   couponModel.StatusValid,
	}
	f.coupons.coupons[c.ID] = c
	f.coupons.assignments[c.ID.String()+"/"+f.userID.String()] = &couponModel.CouponUser{
		CouponID: c.ID,
		UserID:   f.userID,
		MaxUsage: 2,
	}
	return c
}

func createRequest(productID uuid.UUID, qty int, method string, coupon string) model.CreateOrderRequest {
	return model.CreateOrderRequest{
		Items: []model.OrderItemRequest{{ProductID: productID, Quantity: qty}},
		ShippingAddress: model.ShippingAddressRequest{
			Address:    "1 Main St",
			City:       "Cairo",
			PostalCode: "11311",
			Country:    "EG",
		},
		PhoneNumbers:  []string{"+20100000000"},
		CouponCode:    coupon,
		PaymentMethod: method,
	}
}

// =====================================================
// CREATE ORDER
// =====================================================

func TestCreateOrder_CashOrderIsPlaced(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(100, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 3, model.PaymentMethodCash, ""))

	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaced, order.Status)
	// 100 x 3, derived from the applied price, never from the request
	assert.True(t, decimal.NewFromInt(300).Equal(order.TotalPrice), "got %s", order.TotalPrice)
	assert.True(t, decimal.NewFromInt(300).Equal(order.ShippingPrice))

	// Stock consumed, sold incremented
	assert.Equal(t, 4, f.products.products[p.ID].Stock)
	assert.Equal(t, 3, f.products.products[p.ID].Sold)
	assert.Equal(t, 1, f.orders.commits)
}

func TestCreateOrder_TotalSumsLineSubtotals(t *testing.T) {
	f := newFixture(t)
	p1 := f.seedProduct(100, 10)
	p2 := f.seedProduct(25.50, 10)

	req := createRequest(p1.ID, 2, model.PaymentMethodCash, "")
	req.Items = append(req.Items, model.OrderItemRequest{ProductID: p2.ID, Quantity: 3})

	order, err := f.service.CreateOrder(context.Background(), f.userID, req)

	require.NoError(t, err)
	// 100x2 + 25.50x3 = 276.50
	assert.True(t, decimal.RequireFromString("276.50").Equal(order.TotalPrice), "got %s", order.TotalPrice)
}

func TestCreateOrder_CardOrderIsPending(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCard, ""))

	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, order.Status)
}

func TestCreateOrder_FixedCouponDiscountsTotal(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(100, 7)
	f.seedCouponWithAssignment("FLAT30", couponModel.TypeFixed, 30)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, "FLAT30"))

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(70).Equal(order.TotalPrice), "got %s", order.TotalPrice)
	assert.Equal(t, 1, f.coupons.usageCalls, "coupon usage should be consumed once")
	require.NotNil(t, order.CouponID)
}

func TestCreateOrder_PercentageCouponDiscountsTotal(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(200, 7)
	f.seedCouponWithAssignment("PCT20", couponModel.TypePercentage, 20)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, "PCT20"))

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(160).Equal(order.TotalPrice), "got %s", order.TotalPrice)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 2)

	_, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 5, model.PaymentMethodCash, ""))

	var productErr *productModel.ProductError
	require.ErrorAs(t, err, &productErr)
	assert.Equal(t, productModel.ErrCodeInsufficientStock, productErr.Code)

	// Nothing committed, stock untouched
	assert.Equal(t, 0, f.orders.commits)
	assert.Equal(t, 2, f.products.products[p.ID].Stock)
}

func TestCreateOrder_InvalidCouponBlocksOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	_, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, "NOPE"))

	var couponErr *couponModel.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, couponModel.ErrCodeCouponNotFound, couponErr.Code)
	assert.Equal(t, 0, f.orders.commits)
}

// =====================================================
// CART CONVERSION
// =====================================================

func TestConvertCartToOrder_DeletesCartAndUsesCartSubtotal(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(100, 10)

	cartID := uuid.New()
	f.carts.carts[f.userID] = &cartModel.Cart{
		ID:     cartID,
		UserID: f.userID,
		Items: []cartModel.CartItem{
			{ID: uuid.New(), CartID: cartID, ProductID: p.ID, ProductName: p.Name, UnitPrice: p.Price, Quantity: 2},
		},
	}

	order, err := f.service.ConvertCartToOrder(context.Background(), f.userID, model.ConvertCartRequest{
		ShippingAddress: model.ShippingAddressRequest{
			Address: "1 Main St", City: "Cairo", PostalCode: "11311", Country: "EG",
		},
		PhoneNumbers:  []string{"+20100000000"},
		PaymentMethod: model.PaymentMethodCash,
	})

	require.NoError(t, err)
	// 100 x 2 from the cart snapshot
	assert.True(t, decimal.NewFromInt(200).Equal(order.TotalPrice), "got %s", order.TotalPrice)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	// Cart destroyed in the same transaction
	assert.Equal(t, 1, f.carts.deleteCalls)
	_, err = f.carts.GetByUserID(context.Background(), f.userID)
	assert.ErrorIs(t, err, cartModel.ErrCartNotFound)
	assert.Equal(t, 8, f.products.products[p.ID].Stock)
}

func TestConvertCartToOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.carts.carts[f.userID] = &cartModel.Cart{ID: uuid.New(), UserID: f.userID}

	_, err := f.service.ConvertCartToOrder(context.Background(), f.userID, model.ConvertCartRequest{
		ShippingAddress: model.ShippingAddressRequest{
			Address: "1 Main St", City: "Cairo", PostalCode: "11311", Country: "EG",
		},
		PhoneNumbers:  []string{"+20100000000"},
		PaymentMethod: model.PaymentMethodCash,
	})

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeEmptyOrder, orderErr.Code)
}

// =====================================================
// DELIVER
// =====================================================

func TestDeliverOrder_PlacedToDelivered(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)
	adminID := uuid.New()

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, ""))
	require.NoError(t, err)

	delivered, err := f.service.DeliverOrder(context.Background(), order.ID, adminID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredBy)
	assert.Equal(t, adminID, *delivered.DeliveredBy)
	require.NotNil(t, delivered.DeliveredAt)
}

func TestDeliverOrder_TwiceFails(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)
	adminID := uuid.New()

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, ""))
	require.NoError(t, err)

	_, err = f.service.DeliverOrder(context.Background(), order.ID, adminID)
	require.NoError(t, err)

	_, err = f.service.DeliverOrder(context.Background(), order.ID, adminID)

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeInvalidTransition, orderErr.Code)
}

func TestDeliverOrder_PendingOrderCannotBeDelivered(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCard, ""))
	require.NoError(t, err)

	_, err = f.service.DeliverOrder(context.Background(), order.ID, uuid.New())

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeInvalidTransition, orderErr.Code)
}

// =====================================================
// PAY + WEBHOOK
// =====================================================

func payableOrder(t *testing.T, f *fixture) *model.Order {
	t.Helper()
	p := f.seedProduct(50, 7)
	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCard, ""))
	require.NoError(t, err)
	return order
}

func webhookEvent(orderID uuid.UUID, intentID string) model.WebhookEvent {
	var event model.WebhookEvent
	event.Type = "payment_intent.succeeded"
	event.Data.Object.ID = intentID
	event.Data.Object.Metadata.OrderID = orderID.String()
	return event
}

func TestPayOrderWithStripe_CreatesSessionAndStoresIntent(t *testing.T) {
	f := newFixture(t)
	order := payableOrder(t, f)

	resp, err := f.service.PayOrderWithStripe(context.Background(), order.ID, f.userID)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.CheckoutURL)
	assert.NotEmpty(t, resp.PaymentIntentID)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentIntentID)
	assert.Equal(t, resp.PaymentIntentID, *stored.PaymentIntentID)

	require.Len(t, f.gateway.CheckoutSessions, 1)
	require.Len(t, f.gateway.CheckoutSessions[0].Items, 1)
	// Line amounts come from the order items, in minor units
	assert.Equal(t, int64(5000), f.gateway.CheckoutSessions[0].Items[0].UnitAmount)
}

func TestPayOrderWithStripe_MirrorsCouponOnGateway(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)
	f.seedCouponWithAssignment("PCT20", couponModel.TypePercentage, 20)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCard, "PCT20"))
	require.NoError(t, err)

	_, err = f.service.PayOrderWithStripe(context.Background(), order.ID, f.userID)

	require.NoError(t, err)
	require.Len(t, f.gateway.Coupons, 1)
	require.NotNil(t, f.gateway.Coupons[0].PercentOff)
	assert.Equal(t, 20.0, *f.gateway.Coupons[0].PercentOff)
}

func TestPayOrderWithStripe_CashOrderRejected(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, ""))
	require.NoError(t, err)

	_, err = f.service.PayOrderWithStripe(context.Background(), order.ID, f.userID)

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeNotCardOrder, orderErr.Code)
}

func TestConfirmPayment_MarksPaidOnce(t *testing.T) {
	f := newFixture(t)
	order := payableOrder(t, f)

	err := f.service.ConfirmPayment(context.Background(), webhookEvent(order.ID, "pi_123"))
	require.NoError(t, err)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
}

func TestConfirmPayment_DuplicateDeliveryIsNoOp(t *testing.T) {
	f := newFixture(t)
	order := payableOrder(t, f)
	event := webhookEvent(order.ID, "pi_123")

	require.NoError(t, f.service.ConfirmPayment(context.Background(), event))
	paidAtFirst, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)

	// Replay the exact same delivery
	require.NoError(t, f.service.ConfirmPayment(context.Background(), event))

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, stored.Status)
	assert.Equal(t, paidAtFirst.PaidAt, stored.PaidAt)
}

func TestConfirmPayment_RetryAfterTransientFailure(t *testing.T) {
	// A delivery that fails mid-flight must not poison the replay cache:
	// the provider's retry has to be able to finish the job.
	f := newFixture(t)
	order := payableOrder(t, f)
	event := webhookEvent(order.ID, "pi_123")

	f.orders.markPaidFailures = 1
	require.Error(t, f.service.ConfirmPayment(context.Background(), event))

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, stored.Status)

	// Provider retries the same delivery
	require.NoError(t, f.service.ConfirmPayment(context.Background(), event))

	stored, err = f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, stored.Status)
}

func TestConfirmPayment_SurvivesIdempotencyMiss(t *testing.T) {
	// Even when the replay cache forgets, the conditional update keeps
	// the state change exactly-once.
	f := newFixture(t)
	order := payableOrder(t, f)

	require.NoError(t, f.service.ConfirmPayment(context.Background(), webhookEvent(order.ID, "pi_1")))

	// Fresh guard simulates a redis flush before the replay arrives
	f.guard.seen = map[string]bool{}
	require.NoError(t, f.service.ConfirmPayment(context.Background(), webhookEvent(order.ID, "pi_1")))

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, stored.Status)
}

// =====================================================
// REFUND
// =====================================================

func TestRefundOrder_PaidOrderRefunded(t *testing.T) {
	f := newFixture(t)
	order := payableOrder(t, f)

	_, err := f.service.PayOrderWithStripe(context.Background(), order.ID, f.userID)
	require.NoError(t, err)
	require.NoError(t, f.service.ConfirmPayment(context.Background(), webhookEvent(order.ID, "pi_123")))

	refunded, err := f.service.RefundOrder(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, refunded.Status)
	require.Len(t, f.gateway.Refunds, 1)
}

func TestRefundOrder_UnpaidOrderRejected(t *testing.T) {
	f := newFixture(t)
	order := payableOrder(t, f)

	_, err := f.service.RefundOrder(context.Background(), order.ID)

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeInvalidTransition, orderErr.Code)
	assert.Empty(t, f.gateway.Refunds)
}

// =====================================================
// CANCEL
// =====================================================

func TestCancelOrder_WithinWindowRestoresStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 3, model.PaymentMethodCash, ""))
	require.NoError(t, err)
	require.Equal(t, 4, f.products.products[p.ID].Stock)

	f.now = fixtureNow.Add(2 * time.Hour)

	cancelled, err := f.service.CancelOrder(context.Background(), order.ID, f.userID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Equal(t, 7, f.products.products[p.ID].Stock)
	assert.Equal(t, 0, f.products.products[p.ID].Sold)
}

func TestCancelOrder_AfterWindowRejected(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, ""))
	require.NoError(t, err)

	// Pin the stored creation time, then jump past the window
	f.orders.orders[order.ID].CreatedAt = fixtureNow
	f.now = fixtureNow.Add(25 * time.Hour)

	_, err = f.service.CancelOrder(context.Background(), order.ID, f.userID)

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeCancellationExpired, orderErr.Code)
	assert.Equal(t, 6, f.products.products[p.ID].Stock, "stock must not be restored")
}

func TestCancelOrder_DeliveredOrderRejected(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, ""))
	require.NoError(t, err)

	_, err = f.service.DeliverOrder(context.Background(), order.ID, uuid.New())
	require.NoError(t, err)

	_, err = f.service.CancelOrder(context.Background(), order.ID, f.userID)

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeInvalidTransition, orderErr.Code)
}

func TestCancelOrder_OtherUsersOrderNotVisible(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(50, 7)

	order, err := f.service.CreateOrder(context.Background(), f.userID,
		createRequest(p.ID, 1, model.PaymentMethodCash, ""))
	require.NoError(t, err)

	_, err = f.service.CancelOrder(context.Background(), order.ID, uuid.New())

	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, model.ErrCodeOrderNotFound, orderErr.Code)
}
