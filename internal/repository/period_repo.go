package repository

import (
	"context"
	"errors"

	"github.com/diewo77/go-payroll/internal/models"
	"gorm.io/gorm"
)

// ErrPeriodNotFound is returned for unknown period ids.
var ErrPeriodNotFound = errors.New("period not found")

// PeriodRepository persists payroll_periods and payroll_period_lines.
type PeriodRepository struct {
	db *gorm.DB
}

func NewPeriodRepository(db *gorm.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) Create(ctx context.Context, p *models.Period) error {
	return r.db.WithContext(ctx).Omit("Lines").Create(p).Error
}

// Get loads a period with its lines and their vendors.
func (r *PeriodRepository) Get(ctx context.Context, id uint) (*models.Period, error) {
	var p models.Period
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Vendor").
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns one page of periods, most recent first, with lines loaded.
func (r *PeriodRepository) List(ctx context.Context, limit, offset int) ([]models.Period, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Period{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var periods []models.Period
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Vendor").
		Order("date_debut DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&periods).Error
	return periods, total, err
}

// IDs returns every period id, oldest first.
func (r *PeriodRepository) IDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Period{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

func (r *PeriodRepository) ReplaceLines(ctx context.Context, periodID uint, lines []models.PeriodLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period_id = ?", periodID).Delete(&models.PeriodLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].ID = 0
			lines[i].PeriodID = periodID
		}
		return tx.Omit("Vendor").Create(&lines).Error
	})
}

// Delete removes the period and, in the same transaction, its lines. The
// foreign key cascade covers databases where the delete happens elsewhere.
func (r *PeriodRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period_id = ?", id).Delete(&models.PeriodLine{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Period{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPeriodNotFound
		}
		return nil
	})
}
