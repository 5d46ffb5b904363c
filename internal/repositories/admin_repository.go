package repositories

import (
	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/internal/security"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByEmail retrieves an admin account.
func (r *AdminRepository) GetByEmail(email string) (*models.Admin, error) {
	var admin models.Admin
	result := r.db.Where("email = ?", email).First(&admin)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "admin not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get admin")
	}

	return &admin, nil
}

// EnsureAdmin creates the configured admin account if it does not exist.
// The password is stored as a sha256 digest.
func (r *AdminRepository) EnsureAdmin(email, password string) (*models.Admin, error) {
	admin, err := r.GetByEmail(email)
	if err == nil {
		return admin, nil
	}
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	created := models.Admin{
		Email:    email,
		Password: security.HashSHA256(password),
	}
	if err := r.db.Create(&created).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create admin")
	}

	return &created, nil
}
