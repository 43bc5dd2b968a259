package repository

import (
	"context"
	"errors"

	"github.com/diewo77/go-payroll/internal/models"
	"gorm.io/gorm"
)

// ErrVendorNotFound is returned when no vendor carries the card.
var ErrVendorNotFound = errors.New("vendor not found")

// VendorRepository reads pos_vendors.
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) List(ctx context.Context, limit int) ([]models.Vendor, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var vendors []models.Vendor
	err := q.Find(&vendors).Error
	return vendors, err
}

func (r *VendorRepository) ByCard(ctx context.Context, card string) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).Where("card_number = ?", card).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) ByCards(ctx context.Context, cards []string) (map[string]models.Vendor, error) {
	out := make(map[string]models.Vendor, len(cards))
	if len(cards) == 0 {
		return out, nil
	}
	var vendors []models.Vendor
	if err := r.db.WithContext(ctx).Where("card_number IN ?", cards).Find(&vendors).Error; err != nil {
		return nil, err
	}
	for _, v := range vendors {
		out[v.CardNumber] = v
	}
	return out, nil
}
