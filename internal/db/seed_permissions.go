package db

import (
	"errors"
	"strings"

	"github.com/diewo77/go-payroll/internal/models"
	"gorm.io/gorm"
)

// Seed creates the payroll permissions and the default system profiles.
func Seed(db *gorm.DB) error {
	return SeedProfiles(db)
}

// SeedPermissions creates the capabilities checked by the payroll API.
func SeedPermissions(db *gorm.DB) error {
	permissions := []struct {
		ResourceType string
		Action       string
		Description  string
	}{
		{"*", "*", "Full system access"},
		{"payroll", "*", "All payroll actions"},
		{"payroll", "list", "List vendors, periods and totals"},
		{"payroll", "view", "View vendor and period details"},
		{"payroll", "create", "Create and recompute payroll periods"},
		{"payroll", "delete", "Delete payroll periods"},
		{"payroll", "pay", "Prepare vendor payouts"},
	}

	for _, p := range permissions {
		perm := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
		}
		result := db.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the payroll_manager, payroll_user and admin profiles.
// Both payroll profiles may create periods.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	profiles := []struct {
		Name        string
		Description string
		Permissions []string
	}{
		{
			Name:        "admin",
			Description: "Full system administrator",
			Permissions: []string{"*:*"},
		},
		{
			Name:        "payroll_manager",
			Description: "Manage payroll periods and payouts",
			Permissions: []string{"payroll:*"},
		},
		{
			Name:        "payroll_user",
			Description: "Compute payroll and create periods",
			Permissions: []string{"payroll:list", "payroll:view", "payroll:create"},
		},
	}

	for _, p := range profiles {
		var profile models.Profile
		err := db.Where("name = ?", p.Name).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{Name: p.Name, Description: p.Description, IsSystem: true}
			if err := db.Create(&profile).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			resource, action, ok := strings.Cut(code, ":")
			if !ok {
				continue
			}
			var perm models.Permission
			if err := db.Where("resource_type = ? AND action = ?", resource, action).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}
