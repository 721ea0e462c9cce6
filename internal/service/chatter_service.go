package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 主播模块业务错误 ──

var (
	ErrChatterNotFound   = errors.New("主播不存在")
	ErrChatterNameExists = errors.New("主播名称已存在")
	ErrTeamNotFound      = errors.New("团队不存在")
)

// ChatterService 主播与团队业务接口
type ChatterService interface {
	Create(ctx context.Context, req *dto.CreateChatterRequest, actor *Actor) (*model.Chatter, error)
	GetByID(ctx context.Context, id int64) (*model.Chatter, error)
	List(ctx context.Context, query *dto.ListChattersQuery) ([]model.Chatter, error)
	Update(ctx context.Context, id int64, req *dto.UpdateChatterRequest, actor *Actor) (*model.Chatter, error)
	// Delete 默认软删除；hard 为真时物理删除，关联业绩/班次由外键级联
	Delete(ctx context.Context, id int64, hard bool, actor *Actor) error
	ListTeams(ctx context.Context) ([]model.Team, error)
}

type chatterService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewChatterService 创建 ChatterService 实例
func NewChatterService(repo *repository.Repository, audit AuditService, logger *zap.Logger) ChatterService {
	return &chatterService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *chatterService) Create(ctx context.Context, req *dto.CreateChatterRequest, actor *Actor) (*model.Chatter, error) {
	name := strings.TrimSpace(req.Name)
	existing, err := s.repo.Chatter.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("查询主播失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrChatterNameExists
	}

	chatter := &model.Chatter{Name: name, IsActive: true}
	if req.IsActive != nil {
		chatter.IsActive = *req.IsActive
	}
	if req.Handle != "" {
		chatter.Handle = &req.Handle
	}
	if req.Email != "" {
		chatter.Email = &req.Email
	}
	if req.Phone != "" {
		chatter.Phone = &req.Phone
	}
	if teamName := strings.TrimSpace(req.TeamName); teamName != "" {
		team, _, err := s.repo.Team.EnsureByName(ctx, teamName)
		if err != nil {
			return nil, err
		}
		chatter.TeamID = &team.ID
	}

	if err := s.repo.Chatter.Create(ctx, chatter); err != nil {
		s.logger.Error("创建主播失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "chatter.create", chatter.ID, nil, chatter)
	return s.repo.Chatter.GetByID(ctx, chatter.ID)
}

// ────────────────────── Read ──────────────────────

func (s *chatterService) GetByID(ctx context.Context, id int64) (*model.Chatter, error) {
	chatter, err := s.repo.Chatter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if chatter == nil {
		return nil, ErrChatterNotFound
	}
	return chatter, nil
}

func (s *chatterService) List(ctx context.Context, query *dto.ListChattersQuery) ([]model.Chatter, error) {
	return s.repo.Chatter.List(ctx, repository.ChatterFilter{
		TeamID:         query.TeamID,
		IsActive:       query.IsActive,
		IncludeDeleted: query.IncludeDeleted,
		Keyword:        strings.TrimSpace(query.Keyword),
	})
}

// ────────────────────── Update ──────────────────────

func (s *chatterService) Update(ctx context.Context, id int64, req *dto.UpdateChatterRequest, actor *Actor) (*model.Chatter, error) {
	chatter, err := s.repo.Chatter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if chatter == nil {
		return nil, ErrChatterNotFound
	}
	before := *chatter

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != "" && name != chatter.Name {
			dup, err := s.repo.Chatter.GetByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if dup != nil && dup.ID != id {
				return nil, ErrChatterNameExists
			}
			chatter.Name = name
		}
	}
	if req.TeamName != nil {
		if teamName := strings.TrimSpace(*req.TeamName); teamName == "" {
			chatter.TeamID = nil
			chatter.Team = nil
		} else {
			team, _, err := s.repo.Team.EnsureByName(ctx, teamName)
			if err != nil {
				return nil, err
			}
			chatter.TeamID = &team.ID
			chatter.Team = team
		}
	}
	if req.Handle != nil {
		chatter.Handle = nilIfEmpty(req.Handle)
	}
	if req.Email != nil {
		chatter.Email = nilIfEmpty(req.Email)
	}
	if req.Phone != nil {
		chatter.Phone = nilIfEmpty(req.Phone)
	}
	if req.IsActive != nil {
		chatter.IsActive = *req.IsActive
	}

	if err := s.repo.Chatter.Update(ctx, chatter); err != nil {
		s.logger.Error("更新主播失败", zap.Error(err))
		return nil, err
	}
	s.recordAudit(ctx, actor, "chatter.update", id, &before, chatter)
	return chatter, nil
}

// ────────────────────── Delete ──────────────────────

func (s *chatterService) Delete(ctx context.Context, id int64, hard bool, actor *Actor) error {
	chatter, err := s.repo.Chatter.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if chatter == nil {
		return ErrChatterNotFound
	}

	action := "chatter.soft_delete"
	if hard {
		action = "chatter.hard_delete"
		err = s.repo.Chatter.HardDelete(ctx, id)
	} else {
		err = s.repo.Chatter.SoftDelete(ctx, id)
	}
	if err != nil {
		s.logger.Error("删除主播失败", zap.Error(err))
		return err
	}
	s.recordAudit(ctx, actor, action, id, chatter, nil)
	return nil
}

func (s *chatterService) ListTeams(ctx context.Context) ([]model.Team, error) {
	return s.repo.Team.List(ctx)
}

// ────────────────────── helpers ──────────────────────

func (s *chatterService) recordAudit(ctx context.Context, actor *Actor, action string, targetID int64, before, after interface{}) {
	entry := AuditEntry{Action: action, Entity: "chatter", EntityID: entityID(targetID), Before: before, After: after}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
}

func nilIfEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
