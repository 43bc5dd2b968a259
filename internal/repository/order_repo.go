package repository

import (
	"context"

	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/window"
	"gorm.io/gorm"
)

// OrderRepository reads pos_orders.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Find returns orders matching p, oldest first.
func (r *OrderRepository) Find(ctx context.Context, p window.Predicate) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(p.Scope).
		Order("date ASC, id ASC").
		Find(&orders).Error
	return orders, err
}
