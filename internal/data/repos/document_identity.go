package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type DocumentIdentityRepo interface {
	// Record inserts the identity if unseen and reports whether this call
	// created it. The (created=false, nil) case is the at-most-once gate.
	Record(ctx context.Context, tx *gorm.DB, row *types.DocumentIdentity) (created bool, err error)
	Exists(ctx context.Context, tx *gorm.DB, documentID string) (bool, error)
}

type documentIdentityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentIdentityRepo(db *gorm.DB, baseLog *logger.Logger) DocumentIdentityRepo {
	return &documentIdentityRepo{db: db, log: baseLog.With("repo", "DocumentIdentityRepo")}
}

func (r *documentIdentityRepo) Record(ctx context.Context, tx *gorm.DB, row *types.DocumentIdentity) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.DocumentID == "" {
		return false, nil
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *documentIdentityRepo) Exists(ctx context.Context, tx *gorm.DB, documentID string) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if documentID == "" {
		return false, nil
	}
	var count int64
	if err := t.WithContext(ctx).Model(&types.DocumentIdentity{}).
		Where("document_id = ?", documentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
