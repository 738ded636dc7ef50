package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type CanonicalCompanyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CanonicalCompany) ([]*types.CanonicalCompany, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.CanonicalCompany, error)
	GetByCompanyIDs(ctx context.Context, tx *gorm.DB, companyIDs []string) ([]*types.CanonicalCompany, error)
	GetByNormalizedName(ctx context.Context, tx *gorm.DB, normalized string) (*types.CanonicalCompany, error)
	UpsertByCompanyID(ctx context.Context, tx *gorm.DB, row *types.CanonicalCompany) error
}

type canonicalCompanyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanonicalCompanyRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalCompanyRepo {
	return &canonicalCompanyRepo{db: db, log: baseLog.With("repo", "CanonicalCompanyRepo")}
}

func (r *canonicalCompanyRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CanonicalCompany) ([]*types.CanonicalCompany, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.CanonicalCompany{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *canonicalCompanyRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.CanonicalCompany, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalCompany
	if err := t.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *canonicalCompanyRepo) GetByCompanyIDs(ctx context.Context, tx *gorm.DB, companyIDs []string) ([]*types.CanonicalCompany, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalCompany
	if len(companyIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("company_id IN ?", companyIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *canonicalCompanyRepo) GetByNormalizedName(ctx context.Context, tx *gorm.DB, normalized string) (*types.CanonicalCompany, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if normalized == "" {
		return nil, nil
	}
	var out []*types.CanonicalCompany
	if err := t.WithContext(ctx).Where("normalized_name = ?", normalized).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *canonicalCompanyRepo) UpsertByCompanyID(ctx context.Context, tx *gorm.DB, row *types.CanonicalCompany) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "normalized_name", "synonyms", "country", "market", "market_cap_hint", "updated_at",
			}),
		}).
		Create(row).Error
}
