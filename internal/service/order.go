package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
)

// PlaceOrder оформляет заказ покупателя.
// Итог должен сходиться с составляющими, иначе заказ отклоняется.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, o *model.Order) (*model.Order, error) {
	if o.TotalCents != o.SubtotalCents+o.DeliveryFeeCents+o.TaxCents {
		return nil, ErrTotalMismatch
	}

	o.UserID = userID
	o.Number = newOrderNumber()
	o.Status = model.OrderStatusPending
	return s.repo.CreateOrder(ctx, o)
}

// newOrderNumber генерирует человекочитаемый номер заказа.
func newOrderNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("ORD-%s-%s", suffix, time.Now().Format("20060102150405"))
}

// GetUserOrders возвращает заказы покупателя, новые первыми.
func (s *Service) GetUserOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// GetUserOrder возвращает заказ покупателя по идентификатору.
// Чужой заказ неотличим от несуществующего.
func (s *Service) GetUserOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

// ListOrders возвращает все заказы для панели администратора.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// UpdateOrderStatus переводит заказ в новый статус.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	return s.repo.UpdateOrderStatus(ctx, orderID, status)
}

// GetOrderStats возвращает статистику по заказам.
func (s *Service) GetOrderStats(ctx context.Context) (*repository.OrderStats, error) {
	return s.repo.GetOrderStats(ctx)
}
