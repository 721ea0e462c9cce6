package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound = errors.New("班次不存在")
	ErrShiftExists   = errors.New("该主播当日已有班次")
)

// ShiftService 班次业务接口
type ShiftService interface {
	Create(ctx context.Context, req *dto.CreateShiftRequest, actor *Actor) (*model.Shift, error)
	GetByID(ctx context.Context, id int64) (*model.Shift, error)
	List(ctx context.Context, query *dto.ListShiftsQuery) ([]model.Shift, error)
	Update(ctx context.Context, id int64, req *dto.UpdateShiftRequest, actor *Actor) (*model.Shift, error)
	Delete(ctx context.Context, id int64, hard bool, actor *Actor) error
}

type shiftService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, audit AuditService, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, audit: audit, logger: logger}
}

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest, actor *Actor) (*model.Shift, error) {
	chatter, err := s.repo.Chatter.GetByID(ctx, req.ChatterID)
	if err != nil {
		return nil, err
	}
	if chatter == nil {
		return nil, ErrChatterNotFound
	}
	date, err := dto.ParseDate(req.ShiftDate)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Shift.GetByChatterDate(ctx, req.ChatterID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrShiftExists
	}

	shift := &model.Shift{
		ChatterID:      req.ChatterID,
		TeamID:         chatter.TeamID,
		ShiftDate:      date,
		ScheduledHours: req.ScheduledHours,
		ActualHours:    req.ActualHours,
	}
	if req.ShiftDay != "" {
		shift.ShiftDay = &req.ShiftDay
	}
	if req.Remarks != "" {
		shift.Remarks = &req.Remarks
	}

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "shift.create", shift.ID, nil, shift)
	return shift, nil
}

func (s *shiftService) GetByID(ctx context.Context, id int64) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil || shift.DeletedAt != nil {
		return nil, ErrShiftNotFound
	}
	return shift, nil
}

func (s *shiftService) List(ctx context.Context, query *dto.ListShiftsQuery) ([]model.Shift, error) {
	filter := repository.ShiftFilter{ChatterID: query.ChatterID}
	var err error
	if filter.StartDate, err = dto.ParseDatePtr(query.StartDate); err != nil {
		return nil, err
	}
	if filter.EndDate, err = dto.ParseDatePtr(query.EndDate); err != nil {
		return nil, err
	}
	return s.repo.Shift.List(ctx, filter)
}

func (s *shiftService) Update(ctx context.Context, id int64, req *dto.UpdateShiftRequest, actor *Actor) (*model.Shift, error) {
	shift, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *shift

	if req.ShiftDay != nil {
		shift.ShiftDay = nilIfEmpty(req.ShiftDay)
	}
	if req.ScheduledHours != nil {
		shift.ScheduledHours = req.ScheduledHours
	}
	if req.ActualHours != nil {
		shift.ActualHours = req.ActualHours
	}
	if req.Remarks != nil {
		shift.Remarks = nilIfEmpty(req.Remarks)
	}

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("更新班次失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "shift.update", id, &before, shift)
	return shift, nil
}

func (s *shiftService) Delete(ctx context.Context, id int64, hard bool, actor *Actor) error {
	shift, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	action := "shift.soft_delete"
	if hard {
		action = "shift.hard_delete"
		err = s.repo.Shift.HardDelete(ctx, id)
	} else {
		err = s.repo.Shift.SoftDelete(ctx, id)
	}
	if err != nil {
		s.logger.Error("删除班次失败", zap.Error(err))
		return err
	}
	s.recordAudit(ctx, actor, action, id, shift, nil)
	return nil
}

func (s *shiftService) recordAudit(ctx context.Context, actor *Actor, action string, targetID int64, before, after interface{}) {
	entry := AuditEntry{Action: action, Entity: "shift", EntityID: entityID(targetID), Before: before, After: after}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
}
