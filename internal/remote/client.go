// Package remote 提供访问同步服务 HTTP API 的客户端
// 实现 domain.RemoteStore，供同步管理器作为远端存储使用
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/code"
	"github.com/haierkeys/block-journal-sync-service/pkg/timex"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config 客户端配置
type Config struct {
	// BaseURL 服务地址，如 http://127.0.0.1:9000
	BaseURL string
	// Token 用户认证令牌
	Token string
	// Timeout 单次请求超时，默认 30s
	Timeout time.Duration
}

// Client 同步服务 HTTP 客户端
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

var _ domain.RemoteStore = (*Client)(nil)

// New 创建客户端
func New(cfg Config, lg *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  lg,
	}
}

// res 服务端统一响应结构
type res struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	RawData rawMsg `json:"data,omitempty"`
}

type rawMsg []byte

func (m *rawMsg) UnmarshalJSON(data []byte) error {
	*m = append((*m)[:0], data...)
	return nil
}

// entryPayload 服务端条目响应结构
type entryPayload struct {
	ID        int64          `json:"id"`
	Date      string         `json:"date"`
	Blocks    []domain.Block `json:"blocks"`
	CreatedAt timex.Time     `json:"createdAt"`
	UpdatedAt timex.Time     `json:"updatedAt"`
}

func (p *entryPayload) remoteEntry() *domain.RemoteEntry {
	return &domain.RemoteEntry{
		ID:        strconv.FormatInt(p.ID, 10),
		Date:      p.Date,
		Blocks:    p.Blocks,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// CreateEntry 创建条目
func (c *Client) CreateEntry(ctx context.Context, draft *domain.Entry) (*domain.RemoteEntry, error) {
	body := map[string]any{
		"date":   draft.Date,
		"blocks": draft.Blocks,
	}
	payload := new(entryPayload)
	if err := c.do(ctx, http.MethodPost, "/api/entry", nil, body, payload); err != nil {
		return nil, err
	}
	return payload.remoteEntry(), nil
}

// UpdateEntry 以完整块列表覆盖条目内容
func (c *Client) UpdateEntry(ctx context.Context, id string, blocks []domain.Block) (*domain.RemoteEntry, error) {
	numID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"id":     numID,
		"blocks": blocks,
	}
	payload := new(entryPayload)
	if err := c.do(ctx, http.MethodPut, "/api/entry", nil, body, payload); err != nil {
		return nil, err
	}
	return payload.remoteEntry(), nil
}

// DeleteEntry 删除条目
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	numID, err := parseID(id)
	if err != nil {
		return err
	}
	query := url.Values{}
	query.Set("id", strconv.FormatInt(numID, 10))
	return c.do(ctx, http.MethodDelete, "/api/entry", query, nil, nil)
}

// ListEntries 拉取条目列表
func (c *Client) ListEntries(ctx context.Context, limit int) ([]*domain.RemoteEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var payloads []*entryPayload
	if err := c.do(ctx, http.MethodGet, "/api/entries", query, nil, &payloads); err != nil {
		return nil, err
	}
	entries := make([]*domain.RemoteEntry, 0, len(payloads))
	for _, p := range payloads {
		entries = append(entries, p.remoteEntry())
	}
	return entries, nil
}

// do 发送请求并解包统一响应结构
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return errors.WithMessagef(domain.ErrAuthFailed, "http status %d", resp.StatusCode)
	}

	var envelope res
	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return errors.Wrapf(err, "decode response, http status %d", resp.StatusCode)
	}

	if err := c.checkCode(&envelope, resp.StatusCode); err != nil {
		return err
	}

	if out != nil && len(envelope.RawData) > 0 {
		if err := sonic.Unmarshal(envelope.RawData, out); err != nil {
			return errors.Wrap(err, "decode response data")
		}
	}

	return nil
}

// checkCode 将服务端错误码映射为领域错误
func (c *Client) checkCode(envelope *res, httpStatus int) error {
	switch envelope.Code {
	case code.Success.Code():
		return nil
	case code.ErrorNotUserAuthToken.Code(), code.ErrorInvalidUserAuthToken.Code():
		return errors.WithMessagef(domain.ErrAuthFailed, "server code %d: %s", envelope.Code, envelope.Message)
	case code.ErrorEntryNotFound.Code(), code.ErrorNotFound.Code():
		return errors.WithMessagef(domain.ErrEntryNotFound, "server code %d: %s", envelope.Code, envelope.Message)
	default:
		c.logger.Debug("remote request rejected",
			zap.Int("code", envelope.Code),
			zap.Int("httpStatus", httpStatus),
			zap.String("message", envelope.Message))
		return fmt.Errorf("server code %d: %s", envelope.Code, envelope.Message)
	}
}

func parseID(id string) (int64, error) {
	numID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, errors.WithMessagef(domain.ErrEntryNotFound, "invalid entry id %q", id)
	}
	return numID, nil
}
