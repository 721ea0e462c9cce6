package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 违规模块业务错误 ──

var ErrOffenseNotFound = errors.New("违规记录不存在")

// OffenseService 违规记录业务接口
type OffenseService interface {
	Create(ctx context.Context, req *dto.CreateOffenseRequest, actor *Actor) (*model.Offense, error)
	GetByID(ctx context.Context, id int64) (*model.Offense, error)
	List(ctx context.Context, query *dto.ListOffensesQuery) ([]model.Offense, error)
	Update(ctx context.Context, id int64, req *dto.UpdateOffenseRequest, actor *Actor) (*model.Offense, error)
	Delete(ctx context.Context, id int64, actor *Actor) error
}

type offenseService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewOffenseService 创建 OffenseService 实例
func NewOffenseService(repo *repository.Repository, audit AuditService, logger *zap.Logger) OffenseService {
	return &offenseService{repo: repo, audit: audit, logger: logger}
}

func (s *offenseService) Create(ctx context.Context, req *dto.CreateOffenseRequest, actor *Actor) (*model.Offense, error) {
	chatter, err := s.repo.Chatter.GetByID(ctx, req.ChatterID)
	if err != nil {
		return nil, err
	}
	if chatter == nil {
		return nil, ErrChatterNotFound
	}

	offense := &model.Offense{ChatterID: req.ChatterID}
	if req.OffenseType != "" {
		offense.OffenseType = &req.OffenseType
	}
	if req.Offense != "" {
		offense.Offense = &req.Offense
	}
	if req.Details != "" {
		offense.Details = &req.Details
	}
	if req.Sanction != "" {
		offense.Sanction = &req.Sanction
	}
	if offense.OffenseDate, err = dto.ParseDatePtr(req.OffenseDate); err != nil {
		return nil, err
	}

	if err := s.repo.Offense.Create(ctx, offense); err != nil {
		s.logger.Error("创建违规记录失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "offense.create", offense.ID, nil, offense)
	return offense, nil
}

func (s *offenseService) GetByID(ctx context.Context, id int64) (*model.Offense, error) {
	offense, err := s.repo.Offense.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offense == nil {
		return nil, ErrOffenseNotFound
	}
	return offense, nil
}

func (s *offenseService) List(ctx context.Context, query *dto.ListOffensesQuery) ([]model.Offense, error) {
	filter := repository.OffenseFilter{ChatterID: query.ChatterID}
	var err error
	if filter.StartDate, err = dto.ParseDatePtr(query.StartDate); err != nil {
		return nil, err
	}
	if filter.EndDate, err = dto.ParseDatePtr(query.EndDate); err != nil {
		return nil, err
	}
	return s.repo.Offense.List(ctx, filter)
}

func (s *offenseService) Update(ctx context.Context, id int64, req *dto.UpdateOffenseRequest, actor *Actor) (*model.Offense, error) {
	offense, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *offense

	if req.OffenseType != nil {
		offense.OffenseType = nilIfEmpty(req.OffenseType)
	}
	if req.Offense != nil {
		offense.Offense = nilIfEmpty(req.Offense)
	}
	if req.Details != nil {
		offense.Details = nilIfEmpty(req.Details)
	}
	if req.Sanction != nil {
		offense.Sanction = nilIfEmpty(req.Sanction)
	}
	if req.OffenseDate != nil {
		if offense.OffenseDate, err = dto.ParseDatePtr(*req.OffenseDate); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Offense.Update(ctx, offense); err != nil {
		s.logger.Error("更新违规记录失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "offense.update", id, &before, offense)
	return offense, nil
}

func (s *offenseService) Delete(ctx context.Context, id int64, actor *Actor) error {
	offense, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Offense.Delete(ctx, id); err != nil {
		s.logger.Error("删除违规记录失败", zap.Error(err))
		return err
	}
	s.recordAudit(ctx, actor, "offense.delete", id, offense, nil)
	return nil
}

func (s *offenseService) recordAudit(ctx context.Context, actor *Actor, action string, targetID int64, before, after interface{}) {
	entry := AuditEntry{Action: action, Entity: "offense", EntityID: entityID(targetID), Before: before, After: after}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
}
