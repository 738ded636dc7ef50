package repos

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type SectorAssignmentRepo interface {
	// ReplaceCurrent retires the company's current assignment set and
	// appends the new one in a single transaction. History stays in the
	// table with is_current=false.
	ReplaceCurrent(ctx context.Context, tx *gorm.DB, companyID string, rows []*types.SectorAssignment) ([]*types.SectorAssignment, error)

	GetCurrentByCompanyID(ctx context.Context, tx *gorm.DB, companyID string) ([]*types.SectorAssignment, error)
	GetHistoryByCompanyID(ctx context.Context, tx *gorm.DB, companyID string) ([]*types.SectorAssignment, error)
	GetCurrentHolds(ctx context.Context, tx *gorm.DB) ([]*types.SectorAssignment, error)
}

type sectorAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectorAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) SectorAssignmentRepo {
	return &sectorAssignmentRepo{db: db, log: baseLog.With("repo", "SectorAssignmentRepo")}
}

func (r *sectorAssignmentRepo) ReplaceCurrent(ctx context.Context, tx *gorm.DB, companyID string, rows []*types.SectorAssignment) ([]*types.SectorAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if companyID == "" {
		return []*types.SectorAssignment{}, nil
	}

	err := t.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Model(&types.SectorAssignment{}).
			Where("company_id = ? AND is_current", companyID).
			Updates(map[string]interface{}{"is_current": false, "is_primary": false}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for _, row := range rows {
			row.CompanyID = companyID
			row.IsCurrent = true
		}
		return inner.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sectorAssignmentRepo) GetCurrentByCompanyID(ctx context.Context, tx *gorm.DB, companyID string) ([]*types.SectorAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SectorAssignment
	if companyID == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("company_id = ? AND is_current", companyID).
		Order("is_primary DESC, sector_score DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectorAssignmentRepo) GetHistoryByCompanyID(ctx context.Context, tx *gorm.DB, companyID string) ([]*types.SectorAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SectorAssignment
	if companyID == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectorAssignmentRepo) GetCurrentHolds(ctx context.Context, tx *gorm.DB) ([]*types.SectorAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SectorAssignment
	if err := t.WithContext(ctx).
		Where("confidence_tier = ? AND is_current", types.TierHold).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
