package dao

import (
	"context"
	"errors"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/internal/model"

	"gorm.io/gorm"
)

// entryRepository 实现 domain.EntryRepository 接口
type entryRepository struct {
	dao *Dao
}

// NewEntryRepository 创建 EntryRepository 实例
func NewEntryRepository(dao *Dao) domain.EntryRepository {
	return &entryRepository{dao: dao}
}

var _ domain.EntryRepository = (*entryRepository)(nil)

// toDomain 将数据库模型转换为领域模型
func (r *entryRepository) toDomain(m *model.Entry) *domain.ServerEntry {
	if m == nil {
		return nil
	}
	return &domain.ServerEntry{
		ID:         m.ID,
		UID:        m.UID,
		Date:       m.Date,
		Blocks:     []domain.Block(m.Blocks),
		CharCount:  int(m.CharCount),
		BlockCount: int(m.BlockCount),
		IsDeleted:  int(m.IsDeleted),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		DeletedAt:  m.DeletedAt,
	}
}

// toModel 将领域模型转换为数据库模型
func (r *entryRepository) toModel(e *domain.ServerEntry) *model.Entry {
	if e == nil {
		return nil
	}
	return &model.Entry{
		ID:         e.ID,
		UID:        e.UID,
		Date:       e.Date,
		Blocks:     model.BlockList(e.Blocks),
		CharCount:  int64(e.CharCount),
		BlockCount: int64(e.BlockCount),
		IsDeleted:  int64(e.IsDeleted),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
		DeletedAt:  e.DeletedAt,
	}
}

// GetByID 根据标识获取未删除的条目
func (r *entryRepository) GetByID(ctx context.Context, id int64, uid int64) (*domain.ServerEntry, error) {
	var m model.Entry
	err := r.dao.db.WithContext(ctx).
		Where("id = ? AND uid = ? AND is_deleted = 0", id, uid).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建条目
func (r *entryRepository) Create(ctx context.Context, entry *domain.ServerEntry, uid int64) (*domain.ServerEntry, error) {
	m := r.toModel(entry)
	m.ID = 0
	m.UID = uid
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// Update 以完整内容覆盖条目
func (r *entryRepository) Update(ctx context.Context, entry *domain.ServerEntry, uid int64) (*domain.ServerEntry, error) {
	m := r.toModel(entry)
	result := r.dao.db.WithContext(ctx).
		Model(&model.Entry{}).
		Where("id = ? AND uid = ? AND is_deleted = 0", m.ID, uid).
		Updates(map[string]interface{}{
			"blocks":      m.Blocks,
			"char_count":  m.CharCount,
			"block_count": m.BlockCount,
			"updated_at":  m.UpdatedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrEntryNotFound
	}
	return r.GetByID(ctx, m.ID, uid)
}

// UpdateDelete 标记条目为删除状态
func (r *entryRepository) UpdateDelete(ctx context.Context, id int64, uid int64) error {
	result := r.dao.db.WithContext(ctx).
		Model(&model.Entry{}).
		Where("id = ? AND uid = ? AND is_deleted = 0", id, uid).
		Updates(map[string]interface{}{
			"is_deleted": 1,
			"deleted_at": r.dao.db.NowFunc().Unix(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// List 按更新时间倒序获取未删除的条目
func (r *entryRepository) List(ctx context.Context, uid int64, limit int) ([]*domain.ServerEntry, error) {
	var ms []model.Entry
	q := r.dao.db.WithContext(ctx).
		Where("uid = ? AND is_deleted = 0", uid).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.ServerEntry, 0, len(ms))
	for i := range ms {
		out = append(out, r.toDomain(&ms[i]))
	}
	return out, nil
}

// ListPage 按更新时间倒序分页获取未删除的条目
func (r *entryRepository) ListPage(ctx context.Context, uid int64, offset int, limit int) ([]*domain.ServerEntry, int64, error) {
	var total int64
	base := r.dao.db.WithContext(ctx).
		Model(&model.Entry{}).
		Where("uid = ? AND is_deleted = 0", uid)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []model.Entry
	err := r.dao.db.WithContext(ctx).
		Where("uid = ? AND is_deleted = 0", uid).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]*domain.ServerEntry, 0, len(ms))
	for i := range ms {
		out = append(out, r.toDomain(&ms[i]))
	}
	return out, total, nil
}

// DeletePhysicalByTime 物理删除指定时间戳之前标记删除的条目
func (r *entryRepository) DeletePhysicalByTime(ctx context.Context, timestamp int64) (int64, error) {
	result := r.dao.db.WithContext(ctx).
		Where("is_deleted = 1 AND deleted_at > 0 AND deleted_at < ?", timestamp).
		Delete(&model.Entry{})
	return result.RowsAffected, result.Error
}
