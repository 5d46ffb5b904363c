package repositories

import (
	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreateUser upserts a user keyed by their VK identity, refreshing
// the stored name on conflict.
func (r *UserRepository) GetOrCreateUser(vkID int64, firstName, lastName string) (*models.User, error) {
	user := models.User{
		VkID:      vkID,
		FirstName: firstName,
		LastName:  lastName,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vk_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name"}),
	}).Create(&user).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to upsert user")
	}

	// On conflict the insert does not report the existing row id.
	var stored models.User
	if err := r.db.Where("vk_id = ?", vkID).First(&stored).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load upserted user")
	}

	return &stored, nil
}

// GetByVkID retrieves a user by VK identity.
func (r *UserRepository) GetByVkID(vkID int64) (*models.User, error) {
	var user models.User
	result := r.db.Where("vk_id = ?", vkID).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get user")
	}

	return &user, nil
}
