package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

// TicketServicer — интерфейс для хендлеров (Dependency Inversion).
type TicketServicer interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error)
	Update(ctx context.Context, actor *model.User, id uint64, changes map[string]interface{}) (*model.Ticket, error)
	Delete(ctx context.Context, actor *model.User, id uint64) error
}

type TicketService struct {
	db     *gorm.DB
	events kafka.EventProducer
}

func NewTicketService(db *gorm.DB, events kafka.EventProducer) *TicketService {
	return &TicketService{db: db, events: events}
}

// ParsePriority принимает значение в любом регистре; пустое — MEDIUM.
func ParsePriority(s string) (model.TicketPriority, error) {
	if strings.TrimSpace(s) == "" {
		return model.TicketPriorityMedium, nil
	}
	p := model.TicketPriority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", errs.ErrInvalidPriority
	}
	return p, nil
}

// ParseStatus принимает значение в любом регистре, пробелы и дефисы как "_".
func ParseStatus(s string) (model.TicketStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	st := model.TicketStatus(norm)
	if !st.Valid() {
		return "", errs.ErrInvalidStatus
	}
	return st, nil
}

func (s *TicketService) Create(ctx context.Context, t *model.Ticket) error {
	if t.Priority == "" {
		t.Priority = model.TicketPriorityMedium
	}
	if !t.Priority.Valid() {
		return errs.ErrInvalidPriority
	}
	if t.Status == "" {
		t.Status = model.TicketStatusOpen
	}
	if !t.Status.Valid() {
		return errs.ErrInvalidStatus
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return err
	}
	if t.AISolutions == nil {
		t.AISolutions = []model.AISolution{}
	}
	kafka.Publish(s.events, kafka.EventTicketCreated, ticketKey(t.ID), ticketEventPayload(t))
	return nil
}

func withSolutions(db *gorm.DB) *gorm.DB {
	return db.Preload("AISolutions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (s *TicketService) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := withSolutions(s.db.WithContext(ctx)).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TicketService) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	// Count total before pagination
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := withSolutions(tx).Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CanModify: администратор или исполнитель тикета.
func CanModify(u *model.User, t *model.Ticket) bool {
	if u == nil {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == u.ID
}

func (s *TicketService) Update(ctx context.Context, actor *model.User, id uint64, changes map[string]interface{}) (*model.Ticket, error) {
	if len(changes) == 0 {
		return nil, errs.ErrNoChanges
	}
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	if !CanModify(actor, &t) {
		return nil, errs.ErrForbidden
	}
	if err := s.db.WithContext(ctx).Model(&t).Updates(changes).Error; err != nil {
		return nil, err
	}
	// Re-fetch: Updates не обновляет связанные записи
	full, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	kafka.Publish(s.events, kafka.EventTicketUpdated, ticketKey(full.ID), ticketEventPayload(full))
	return full, nil
}

// Delete удаляет тикет вместе с его AI-решениями. Только для администраторов.
func (s *TicketService) Delete(ctx context.Context, actor *model.User, id uint64) error {
	if actor == nil || !actor.IsSuperuser {
		return errs.ErrForbidden
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&model.AISolution{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Ticket{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrTicketNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	kafka.Publish(s.events, kafka.EventTicketDeleted, ticketKey(id), map[string]interface{}{"ticket_id": id})
	return nil
}

func ticketKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func ticketEventPayload(t *model.Ticket) map[string]interface{} {
	if t == nil {
		return nil
	}
	return map[string]interface{}{
		"ticket_id":   t.ID,
		"title":       t.Title,
		"description": t.Description,
		"priority":    string(t.Priority),
		"status":      string(t.Status),
		"assigned_to": t.AssignedTo,
	}
}

// ReplayTicket синхронно отправляет ticket.updated с текущим состоянием тикета.
func ReplayTicket(ctx context.Context, p kafka.EventProducer, t *model.Ticket) {
	p.Produce(ctx, kafka.EventTicketUpdated, ticketKey(t.ID), ticketEventPayload(t))
}
