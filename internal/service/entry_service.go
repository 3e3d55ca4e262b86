package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/internal/dto"
	"github.com/haierkeys/block-journal-sync-service/pkg/code"
	"github.com/haierkeys/block-journal-sync-service/pkg/logger"
	"github.com/haierkeys/block-journal-sync-service/pkg/timex"
	"github.com/haierkeys/block-journal-sync-service/pkg/util"
	"github.com/haierkeys/block-journal-sync-service/pkg/writequeue"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// EntryService 日记条目服务接口
type EntryService interface {
	// Get 获取单条条目
	Get(ctx context.Context, uid int64, params *dto.EntryGetRequest) (*dto.EntryResponse, error)

	// Create 创建条目
	Create(ctx context.Context, uid int64, params *dto.EntryCreateRequest) (*dto.EntryResponse, error)

	// Update 以完整块列表覆盖条目
	Update(ctx context.Context, uid int64, params *dto.EntryUpdateRequest) (*dto.EntryResponse, error)

	// Delete 软删除条目
	Delete(ctx context.Context, uid int64, params *dto.EntryDeleteRequest) error

	// List 按更新时间倒序获取条目列表
	List(ctx context.Context, uid int64, params *dto.EntryListRequest) ([]*dto.EntryResponse, error)

	// ListPaged 按更新时间倒序分页获取条目列表，返回总行数
	ListPaged(ctx context.Context, uid int64, page, pageSize int) ([]*dto.EntryResponse, int64, error)

	// PurgeDeleted 物理清除超过保留期的软删除条目
	PurgeDeleted(ctx context.Context) (int64, error)
}

// entryService 实现 EntryService 接口
type entryService struct {
	repo   domain.EntryRepository
	wq     *writequeue.Manager
	sf     singleflight.Group
	logger *zap.Logger
	cfg    *AppServiceConfig
}

// NewEntryService 创建 EntryService 实例
func NewEntryService(repo domain.EntryRepository, wq *writequeue.Manager, lg *zap.Logger, cfg *AppServiceConfig) EntryService {
	return &entryService{
		repo:   repo,
		wq:     wq,
		logger: lg,
		cfg:    cfg,
	}
}

var _ EntryService = (*entryService)(nil)

// normalizeBlocks 修复块列表不变式并统计规模
func normalizeBlocks(blocks []domain.Block) ([]domain.Block, int, int) {
	e := &domain.Entry{Blocks: blocks}
	e.Normalize()
	return e.Blocks, e.CharCount(), e.BlockCount()
}

// Get 获取单条条目
func (s *entryService) Get(ctx context.Context, uid int64, params *dto.EntryGetRequest) (*dto.EntryResponse, error) {
	entry, err := s.repo.GetByID(ctx, params.ID, uid)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, code.ErrorEntryNotFound
		}
		return nil, code.ErrorDBQuery
	}
	return dto.NewEntryResponse(entry), nil
}

// Create 创建条目
func (s *entryService) Create(ctx context.Context, uid int64, params *dto.EntryCreateRequest) (*dto.EntryResponse, error) {
	blocks, chars, count := normalizeBlocks(params.Blocks)

	now := timex.Now()
	entry := &domain.ServerEntry{
		UID:        uid,
		Date:       params.Date,
		Blocks:     blocks,
		CharCount:  chars,
		BlockCount: count,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := s.repo.Create(ctx, entry, uid)
	if err != nil {
		s.logger.Error("entry create failed",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldDate, params.Date),
			zap.Error(err))
		return nil, code.ErrorEntryCreateFail
	}

	s.logger.Info("entry created",
		zap.Int64(logger.FieldUID, uid),
		zap.Int64(logger.FieldEntryID, created.ID),
		zap.String(logger.FieldDate, created.Date))
	return dto.NewEntryResponse(created), nil
}

// Update 以完整块列表覆盖条目
// 同一条目的并发更新经写队列串行化，后写覆盖先写
func (s *entryService) Update(ctx context.Context, uid int64, params *dto.EntryUpdateRequest) (*dto.EntryResponse, error) {
	blocks, chars, count := normalizeBlocks(params.Blocks)

	var updated *domain.ServerEntry
	err := s.wq.Execute(ctx, fmt.Sprintf("%d/%d", uid, params.ID), func() error {
		entry := &domain.ServerEntry{
			ID:         params.ID,
			UID:        uid,
			Blocks:     blocks,
			CharCount:  chars,
			BlockCount: count,
			UpdatedAt:  timex.Now(),
		}
		var err error
		updated, err = s.repo.Update(ctx, entry, uid)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, code.ErrorEntryNotFound
		}
		s.logger.Error("entry update failed",
			zap.Int64(logger.FieldUID, uid),
			zap.Int64(logger.FieldEntryID, params.ID),
			zap.Error(err))
		return nil, code.ErrorEntryUpdateFail
	}

	s.logger.Debug("entry updated",
		zap.Int64(logger.FieldUID, uid),
		zap.Int64(logger.FieldEntryID, params.ID),
		zap.Int(logger.FieldBlocks, count),
		zap.Int(logger.FieldChars, chars))
	return dto.NewEntryResponse(updated), nil
}

// Delete 软删除条目
func (s *entryService) Delete(ctx context.Context, uid int64, params *dto.EntryDeleteRequest) error {
	err := s.wq.Execute(ctx, fmt.Sprintf("%d/%d", uid, params.ID), func() error {
		return s.repo.UpdateDelete(ctx, params.ID, uid)
	})
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return code.ErrorEntryNotFound
		}
		s.logger.Error("entry delete failed",
			zap.Int64(logger.FieldUID, uid),
			zap.Int64(logger.FieldEntryID, params.ID),
			zap.Error(err))
		return code.ErrorEntryDeleteFail
	}
	return nil
}

// List 按更新时间倒序获取条目列表
// 同一用户的并发列表请求经 singleflight 合并
func (s *entryService) List(ctx context.Context, uid int64, params *dto.EntryListRequest) ([]*dto.EntryResponse, error) {
	limit := params.Limit
	if limit <= 0 && s.cfg != nil {
		limit = s.cfg.DefaultListLimit
	}

	v, err, _ := s.sf.Do(fmt.Sprintf("list/%d/%d", uid, limit), func() (interface{}, error) {
		return s.repo.List(ctx, uid, limit)
	})
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	return dto.NewEntryResponseList(v.([]*domain.ServerEntry)), nil
}

// ListPaged 按更新时间倒序分页获取条目列表
func (s *entryService) ListPaged(ctx context.Context, uid int64, page, pageSize int) ([]*dto.EntryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	entries, total, err := s.repo.ListPage(ctx, uid, offset, pageSize)
	if err != nil {
		s.logger.Error("entry list page failed",
			zap.Int64(logger.FieldUID, uid),
			zap.Int("page", page),
			zap.Error(err))
		return nil, 0, code.ErrorDBQuery
	}
	return dto.NewEntryResponseList(entries), total, nil
}

// PurgeDeleted 物理清除超过保留期的软删除条目
// 保留时间未配置或非法时不执行
func (s *entryService) PurgeDeleted(ctx context.Context) (int64, error) {
	if s.cfg == nil || s.cfg.SoftDeleteRetentionTime == "" {
		return 0, nil
	}
	retention, err := util.ParseDuration(s.cfg.SoftDeleteRetentionTime)
	if err != nil || retention <= 0 {
		return 0, err
	}

	cutoff := time.Now().Add(-retention).Unix()
	purged, err := s.repo.DeletePhysicalByTime(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("soft deleted entries purged", zap.Int64("count", purged))
	}
	return purged, nil
}
