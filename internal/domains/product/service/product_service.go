package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopora-backend/internal/domains/product/model"
	"shopora-backend/internal/domains/product/repository"
	"shopora-backend/internal/infrastructure/queue"
	"shopora-backend/internal/infrastructure/storage"
	"shopora-backend/internal/shared"
	"shopora-backend/internal/shared/utils"
	"shopora-backend/pkg/logger"
)

type ProductService interface {
	Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, page, limit int) ([]model.Product, int64, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadImage(ctx context.Context, id uuid.UUID, filename string, data []byte, contentType string) (string, error)

	// CheckAvailability validates every requested line against current
	// stock and returns the priced lines. Fails on the first problem.
	CheckAvailability(ctx context.Context, items []model.RequestedItem) ([]model.AvailableItem, error)
}

type productService struct {
	repo        repository.ProductRepository
	storage     *storage.MinIOStorage
	queueClient *queue.Client
}

func NewProductService(repo repository.ProductRepository, storage *storage.MinIOStorage, queueClient *queue.Client) ProductService {
	return &productService{
		repo:        repo,
		storage:     storage,
		queueClient: queueClient,
	}
}

func (s *productService) Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	price := decimal.NewFromFloat(req.Price)

	product := &model.Product{
		ID:           uuid.New(),
		Name:         req.Name,
		Slug:         utils.GenerateSlug(req.Name),
		Description:  req.Description,
		Price:        price,
		AppliedPrice: price,
		Stock:        req.Stock,
		Sold:         0,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	return product, nil
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *productService) List(ctx context.Context, page, limit int) ([]model.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req model.UpdateProductRequest) (*model.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
		product.Slug = utils.GenerateSlug(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = decimal.NewFromFloat(*req.Price)
		product.AppliedPrice = product.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Best effort, product row is already gone
	if err := s.storage.DeleteByPrefix(ctx, fmt.Sprintf("products/%s/", id)); err != nil {
		logger.Error("Failed to delete product images", err)
	}

	return nil
}

func (s *productService) UploadImage(ctx context.Context, id uuid.UUID, filename string, data []byte, contentType string) (string, error) {
	// Make sure the product exists before uploading anything
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}

	key := fmt.Sprintf("products/%s/%s", id, filename)
	url, err := s.storage.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	if err := s.repo.UpdateImageURL(ctx, id, url); err != nil {
		return "", err
	}

	// Thumbnail generation happens off the request path
	err = s.queueClient.Enqueue(shared.TypeProductProcessImage, shared.ProductProcessImagePayload{
		ProductID: id,
		ObjectKey: key,
	}, shared.QueueLow)
	if err != nil {
		logger.Error("Failed to enqueue image processing", err)
	}

	return url, nil
}

func (s *productService) CheckAvailability(ctx context.Context, items []model.RequestedItem) ([]model.AvailableItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, model.NewInvalidQuantityError(item.Quantity)
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	result := make([]model.AvailableItem, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, model.NewProductNotFoundError(item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, model.NewInsufficientStockError(product.Name, product.Stock, item.Quantity)
		}

		result = append(result, model.AvailableItem{
			Product:  product,
			Quantity: item.Quantity,
			Subtotal: product.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	return result, nil
}
