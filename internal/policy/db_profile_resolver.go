package policy

import (
	"context"
	"errors"

	"github.com/diewo77/go-payroll/internal/access"
	"github.com/diewo77/go-payroll/internal/models"
	"gorm.io/gorm"
)

// DBProfileResolver loads a user's profile and permissions with gorm.
type DBProfileResolver struct {
	DB *gorm.DB
}

func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve returns nil, nil for unknown users and users without a profile.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (access.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Profile.Permissions").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, nil
	}
	perms := make([]access.Permission, len(user.Profile.Permissions))
	for i, p := range user.Profile.Permissions {
		perms[i] = access.Permission(p.Code())
	}
	return access.NewStaticProfile(user.Profile.Name, perms...), nil
}

// UserExists backs auth.RequireAuth.
func (r *DBProfileResolver) UserExists(ctx context.Context, userID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
