package model

import "time"

type User struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token — непрозрачный bearer-токен, один на пользователя.
type Token struct {
	ID        uint64    `gorm:"primaryKey" json:"-"`
	UserID    uint64    `gorm:"uniqueIndex;not null" json:"-"`
	Key       string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"token"`
	CreatedAt time.Time `json:"-"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Token) TableName() string { return "auth_tokens" }

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

type Ticket struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Priority    TicketPriority `gorm:"type:varchar(10);index;not null;default:MEDIUM" json:"priority"`
	Status      TicketStatus   `gorm:"type:varchar(11);index;not null;default:OPEN" json:"status"`
	AssignedTo  *uint64        `gorm:"index" json:"assigned_to"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assignee    *User        `gorm:"foreignKey:AssignedTo;constraint:OnDelete:SET NULL" json:"-"`
	AISolutions []AISolution `gorm:"constraint:OnDelete:CASCADE" json:"ai_solutions"`
}

// AISolution — ответ crew на тикет. Likes и Dislikes принимают значения 0 или 1
// и никогда не равны 1 одновременно.
type AISolution struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	TicketID  uint64    `gorm:"index;not null" json:"ticket_id"`
	Solution  string    `gorm:"type:text;not null" json:"solution"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	Dislikes  int       `gorm:"not null;default:0" json:"dislikes"`
}

func (AISolution) TableName() string { return "ai_solutions" }
