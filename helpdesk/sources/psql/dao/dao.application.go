// helpdesk/sources/psql/dao/dao.application.go
package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"helpdesk/helpdesk/sources/psql/models"
)

type ApplicationDAO struct {
	DB *gorm.DB
}

func NewApplicationDAO(db *gorm.DB) *ApplicationDAO {
	return &ApplicationDAO{DB: db}
}

func (dao *ApplicationDAO) CreateApplication(ctx context.Context, app *models.VendorApplication) error {
	return dao.DB.WithContext(ctx).Create(app).Error
}

func (dao *ApplicationDAO) GetApplication(ctx context.Context, id uuid.UUID) (*models.VendorApplication, error) {
	var app models.VendorApplication
	err := dao.DB.WithContext(ctx).First(&app, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (dao *ApplicationDAO) ListApplications(ctx context.Context) ([]models.VendorApplication, error) {
	var apps []models.VendorApplication
	err := dao.DB.WithContext(ctx).Order("created_at asc, id asc").Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (dao *ApplicationDAO) ListApplicationsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorApplication, error) {
	var apps []models.VendorApplication
	err := dao.DB.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at asc, id asc").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// DecideApplication flips pending to a terminal status. The status guard in
// the WHERE clause makes two concurrent decisions race safely: the loser
// updates zero rows and reports decided=false.
func (dao *ApplicationDAO) DecideApplication(ctx context.Context, id uuid.UUID, status models.ApplicationStatus, reason string, decidedAt time.Time) (bool, error) {
	res := dao.DB.WithContext(ctx).
		Model(&models.VendorApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationPending).
		Updates(map[string]interface{}{
			"status":           status,
			"rejection_reason": reason,
			"decided_at":       decidedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (dao *ApplicationDAO) HasPendingApplication(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.VendorApplication{}).
		Where("vendor_id = ? AND status = ?", vendorID, models.ApplicationPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
