package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type CompanyAliasRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CompanyAlias) ([]*types.CompanyAlias, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.CompanyAlias, error)
	GetByAlias(ctx context.Context, tx *gorm.DB, alias string) (*types.CompanyAlias, error)
	UpsertByAlias(ctx context.Context, tx *gorm.DB, row *types.CompanyAlias) error
}

type companyAliasRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyAliasRepo(db *gorm.DB, baseLog *logger.Logger) CompanyAliasRepo {
	return &companyAliasRepo{db: db, log: baseLog.With("repo", "CompanyAliasRepo")}
}

func (r *companyAliasRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CompanyAlias) ([]*types.CompanyAlias, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.CompanyAlias{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *companyAliasRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.CompanyAlias, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CompanyAlias
	if err := t.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *companyAliasRepo) GetByAlias(ctx context.Context, tx *gorm.DB, alias string) (*types.CompanyAlias, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if alias == "" {
		return nil, nil
	}
	var out []*types.CompanyAlias
	if err := t.WithContext(ctx).Where("alias = ?", alias).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *companyAliasRepo) UpsertByAlias(ctx context.Context, tx *gorm.DB, row *types.CompanyAlias) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "alias"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"company_id", "official_name", "confidence", "company_type", "updated_at",
			}),
		}).
		Create(row).Error
}
