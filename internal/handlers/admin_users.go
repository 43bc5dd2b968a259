package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/go-payroll/httpx"
	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/services"
	"gorm.io/gorm"
)

// AdminUserHandler lists API users and assigns their payroll profile.
type AdminUserHandler struct {
	DB *gorm.DB
	// Invalidate drops the cached profile of a user after reassignment.
	Invalidate func(userID uint)
}

func NewAdminUserHandler(db *gorm.DB, invalidate func(uint)) *AdminUserHandler {
	return &AdminUserHandler{DB: db, Invalidate: invalidate}
}

type userEntry struct {
	ID      uint    `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Profile *string `json:"profil"`
}

type profileEntry struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type userListResponse struct {
	Status   string         `json:"status"`
	Users    []userEntry    `json:"utilisateurs"`
	Profiles []profileEntry `json:"profils"`
}

// List handles GET /api/admin/users.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) error {
	var users []models.User
	if err := h.DB.WithContext(r.Context()).Preload("Profile").Order("id ASC").Find(&users).Error; err != nil {
		return err
	}
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Preload("Permissions").Order("name ASC").Find(&profiles).Error; err != nil {
		return err
	}

	out := userListResponse{
		Status:   httpx.StatusSuccess,
		Users:    make([]userEntry, 0, len(users)),
		Profiles: make([]profileEntry, 0, len(profiles)),
	}
	for _, u := range users {
		e := userEntry{ID: u.ID, Email: u.Email, Name: u.Name}
		if u.Profile != nil {
			e.Profile = &u.Profile.Name
		}
		out.Users = append(out.Users, e)
	}
	for _, p := range profiles {
		e := profileEntry{ID: p.ID, Name: p.Name, Permissions: make([]string, 0, len(p.Permissions))}
		for _, perm := range p.Permissions {
			e.Permissions = append(e.Permissions, perm.Code())
		}
		out.Profiles = append(out.Profiles, e)
	}
	httpx.JSON(w, http.StatusOK, out)
	return nil
}

// AssignProfile handles POST /api/admin/users/{id}/profile. An empty or
// null "profil" removes the user's profile.
func (h *AdminUserHandler) AssignProfile(w http.ResponseWriter, r *http.Request) error {
	uid, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || uid == 0 {
		return fmt.Errorf("%w: utilisateur %q", services.ErrNotFound, r.PathValue("id"))
	}
	p, err := readParams(r)
	if err != nil {
		return err
	}

	var profileID *uint
	if name := p.String("profil"); name != "" {
		var profile models.Profile
		err := h.DB.WithContext(r.Context()).Where("name = ?", name).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: profil %s", services.ErrNotFound, name)
		}
		if err != nil {
			return err
		}
		profileID = &profile.ID
	}

	res := h.DB.WithContext(r.Context()).Model(&models.User{}).Where("id = ?", uid).Update("profile_id", profileID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: utilisateur %d", services.ErrNotFound, uid)
	}
	if h.Invalidate != nil {
		h.Invalidate(uint(uid))
	}
	httpx.OK(w)
	return nil
}
