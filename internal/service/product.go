package service

import (
	"context"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
)

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	return s.repo.CreateProduct(ctx, p)
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

// ListProducts возвращает каталог товаров.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// UpdateProduct обновляет товар.
func (s *Service) UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

// GetProductStats возвращает статистику по каталогу.
func (s *Service) GetProductStats(ctx context.Context) (*repository.ProductStats, error) {
	return s.repo.GetProductStats(ctx)
}
