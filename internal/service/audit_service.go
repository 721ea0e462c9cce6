package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// AuditEntry 一次审计写入的内容
type AuditEntry struct {
	UserID    *int64
	Action    string
	Entity    string
	EntityID  string
	Before    interface{}
	After     interface{}
	IP        string
	UserAgent string
}

// AuditService 审计日志业务接口
type AuditService interface {
	// Record 写入一条审计记录。写入失败只记日志，绝不影响主操作
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, query *dto.ListAuditQuery) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	log := &model.AuditLog{
		OccurredAt: time.Now(),
		UserID:     entry.UserID,
		Action:     entry.Action,
		Entity:     entry.Entity,
	}
	if entry.EntityID != "" {
		log.EntityID = &entry.EntityID
	}
	if entry.IP != "" {
		log.IP = &entry.IP
	}
	if entry.UserAgent != "" {
		log.UserAgent = &entry.UserAgent
	}
	log.BeforeJSON = toJSONMap(entry.Before)
	log.AfterJSON = toJSONMap(entry.After)

	if err := s.repo.Audit.Create(ctx, log); err != nil {
		s.logger.Error("写入审计日志失败",
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.Error(err))
	}
}

func (s *auditService) List(ctx context.Context, query *dto.ListAuditQuery) ([]model.AuditLog, int64, error) {
	filter := repository.AuditFilter{
		UserID: query.UserID,
		Entity: query.Entity,
		Action: query.Action,
	}
	if t, err := parseTimePtr(query.StartTime); err == nil {
		filter.StartTime = t
	}
	if t, err := parseTimePtr(query.EndTime); err == nil {
		filter.EndTime = t
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	filter.Limit = size
	filter.Offset = (page - 1) * size
	return s.repo.Audit.List(ctx, filter)
}

// toJSONMap 把任意值经 JSON 规整为 JSONMap，nil 或失败返回 nil
func toJSONMap(v interface{}) model.JSONMap {
	if v == nil {
		return nil
	}
	if m, ok := v.(model.JSONMap); ok {
		return m
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// parseTimePtr 解析 RFC3339 或 YYYY-MM-DD 的可选时间
func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// entityID 整型主键转审计日志的 entity_id 文本
func entityID(id int64) string {
	return strconv.FormatInt(id, 10)
}
