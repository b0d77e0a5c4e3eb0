package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

const DefaultSystem = "system1"

// Solver — crew, отвечающий по документации системы.
type Solver interface {
	Systems() []string
	HasSystem(name string) bool
	Ask(ctx context.Context, system, prompt string) (string, error)
}

type SolutionServicer interface {
	Systems() []string
	Generate(ctx context.Context, ticketID uint64, system string) (*model.AISolution, error)
	Like(ctx context.Context, actor *model.User, id uint64) (*model.AISolution, error)
	Dislike(ctx context.Context, actor *model.User, id uint64) (*model.AISolution, error)
}

type SolutionService struct {
	db     *gorm.DB
	solver Solver
	events kafka.EventProducer
}

func NewSolutionService(db *gorm.DB, solver Solver, events kafka.EventProducer) *SolutionService {
	return &SolutionService{db: db, solver: solver, events: events}
}

func (s *SolutionService) Systems() []string { return s.solver.Systems() }

// UnknownSystemError перечисляет доступные системы в тексте ошибки.
func UnknownSystemError(system string, available []string) error {
	return fmt.Errorf("%w %q: available systems are %s", errs.ErrUnknownSystem, system, strings.Join(available, ", "))
}

func solutionPrompt(description string) string {
	return "Provide a solution for the following ticket: " + description
}

// Generate спрашивает crew и сохраняет ответ. При ошибке модели ничего не сохраняется.
func (s *SolutionService) Generate(ctx context.Context, ticketID uint64, system string) (*model.AISolution, error) {
	if system == "" {
		system = DefaultSystem
	}
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	if !s.solver.HasSystem(system) {
		return nil, UnknownSystemError(system, s.solver.Systems())
	}
	answer, err := s.solver.Ask(ctx, system, solutionPrompt(t.Description))
	if err != nil {
		return nil, err
	}
	sol := &model.AISolution{TicketID: t.ID, Solution: answer}
	if err := s.db.WithContext(ctx).Create(sol).Error; err != nil {
		return nil, err
	}
	kafka.Publish(s.events, kafka.EventSolutionCreated, ticketKey(t.ID), map[string]interface{}{
		"solution_id": sol.ID,
		"ticket_id":   t.ID,
		"system":      system,
	})
	return sol, nil
}

func (s *SolutionService) Like(ctx context.Context, actor *model.User, id uint64) (*model.AISolution, error) {
	return s.rate(ctx, actor, id, "like", func(sol *model.AISolution) {
		if sol.Likes > 0 {
			sol.Likes = 0
			return
		}
		sol.Likes = 1
		sol.Dislikes = 0
	})
}

func (s *SolutionService) Dislike(ctx context.Context, actor *model.User, id uint64) (*model.AISolution, error) {
	return s.rate(ctx, actor, id, "dislike", func(sol *model.AISolution) {
		if sol.Dislikes > 0 {
			sol.Dislikes = 0
			return
		}
		sol.Dislikes = 1
		sol.Likes = 0
	})
}

// rate: чтение и запись под FOR UPDATE, параллельные переключения выполняются по очереди.
func (s *SolutionService) rate(ctx context.Context, actor *model.User, id uint64, action string, toggle func(*model.AISolution)) (*model.AISolution, error) {
	if actor == nil || !actor.IsSuperuser {
		return nil, fmt.Errorf("%w: only admins can like or dislike solutions", errs.ErrForbidden)
	}
	var sol model.AISolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sol, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrSolutionNotFound
			}
			return err
		}
		toggle(&sol)
		return tx.Model(&sol).Updates(map[string]interface{}{
			"likes":    sol.Likes,
			"dislikes": sol.Dislikes,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	kafka.Publish(s.events, kafka.EventSolutionRated, ticketKey(sol.TicketID), map[string]interface{}{
		"solution_id": sol.ID,
		"ticket_id":   sol.TicketID,
		"action":      action,
		"likes":       sol.Likes,
		"dislikes":    sol.Dislikes,
		"rated_by":    strconv.FormatUint(actor.ID, 10),
	})
	return &sol, nil
}
