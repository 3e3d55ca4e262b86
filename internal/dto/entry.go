// Package dto 定义 API 层的请求与响应结构
package dto

import (
	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/convert"
	"github.com/haierkeys/block-journal-sync-service/pkg/timex"
)

// EntryGetRequest 获取单条条目请求
type EntryGetRequest struct {
	ID int64 `json:"id" form:"id" binding:"required,gt=0"`
}

// EntryCreateRequest 创建条目请求
type EntryCreateRequest struct {
	Date   string         `json:"date" form:"date" binding:"required,date"`
	Blocks []domain.Block `json:"blocks" form:"blocks"`
}

// EntryUpdateRequest 更新条目请求，块列表整体覆盖
type EntryUpdateRequest struct {
	ID     int64          `json:"id" form:"id" binding:"required,gt=0"`
	Blocks []domain.Block `json:"blocks" form:"blocks" binding:"required"`
}

// EntryDeleteRequest 删除条目请求
type EntryDeleteRequest struct {
	ID int64 `json:"id" form:"id" binding:"required,gt=0"`
}

// EntryListRequest 条目列表请求
type EntryListRequest struct {
	Limit int `json:"limit" form:"limit"`
}

// EntryResponse 条目响应
type EntryResponse struct {
	ID         int64          `json:"id"`
	Date       string         `json:"date"`
	Blocks     []domain.Block `json:"blocks"`
	CharCount  int            `json:"charCount"`
	BlockCount int            `json:"blockCount"`
	CreatedAt  timex.Time     `json:"createdAt"`
	UpdatedAt  timex.Time     `json:"updatedAt"`
}

// NewEntryResponse 从领域模型构建响应，同名字段整体复制
func NewEntryResponse(e *domain.ServerEntry) *EntryResponse {
	if e == nil {
		return nil
	}
	return convert.StructAssign(e, &EntryResponse{}).(*EntryResponse)
}

// NewEntryResponseList 从领域模型列表构建响应列表
func NewEntryResponseList(entries []*domain.ServerEntry) []*EntryResponse {
	out := make([]*EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewEntryResponse(e))
	}
	return out
}
