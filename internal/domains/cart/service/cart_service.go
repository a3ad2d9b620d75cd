package service

import (
	"context"

	"github.com/google/uuid"

	cartModel "shopora-backend/internal/domains/cart/model"
	"shopora-backend/internal/domains/cart/repository"
	productModel "shopora-backend/internal/domains/product/model"
	productService "shopora-backend/internal/domains/product/service"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cartModel.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req cartModel.AddItemRequest) (*cartModel.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cartModel.Cart, error)
}

type cartService struct {
	repo     repository.CartRepository
	products productService.ProductService
}

func NewCartService(repo repository.CartRepository, products productService.ProductService) CartService {
	return &cartService{
		repo:     repo,
		products: products,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartModel.Cart, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req cartModel.AddItemRequest) (*cartModel.Cart, error) {
	// Availability check up front so users cannot park out-of-stock
	// items in the cart. Stock is re-verified at order time.
	available, err := s.products.CheckAvailability(ctx, []productModel.RequestedItem{
		{ProductID: req.ProductID, Quantity: req.Quantity},
	})
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := &cartModel.CartItem{
		ID:        uuid.New(),
		CartID:    cart.ID,
		ProductID: req.ProductID,
		UnitPrice: available[0].Product.EffectivePrice(),
		Quantity:  req.Quantity,
	}

	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return nil, err
	}

	return s.repo.GetByUserID(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cartModel.Cart, error) {
	cart, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	}

	return s.repo.GetByUserID(ctx, userID)
}
