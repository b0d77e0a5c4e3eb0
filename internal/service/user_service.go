package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/tokencache"
)

// UserServicer — зависимость хендлеров и middleware (Dependency Inversion).
type UserServicer interface {
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, userID uint64) error
	Authenticate(ctx context.Context, key string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

type UserService struct {
	db     *gorm.DB
	hasher *auth.PasswordHasher
	cache  *tokencache.Cache
}

func NewUserService(db *gorm.DB, hasher *auth.PasswordHasher, cache *tokencache.Cache) *UserService {
	return &UserService{db: db, hasher: hasher, cache: cache}
}

// Register создаёт пользователя и его токен в одной транзакции.
func (s *UserService) Register(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := auth.ValidatePassword(password, username, email); err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	var key string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, &model.User{}, "username = ?", username); err != nil {
			return err
		} else if taken {
			return errs.ErrUsernameTaken
		}
		if taken, err := exists(tx, &model.User{}, "LOWER(email) = LOWER(?)", email); err != nil {
			return err
		} else if taken {
			return errs.ErrEmailTaken
		}
		user := &model.User{Username: username, Email: email, PasswordHash: hash}
		if err := tx.Create(user).Error; err != nil {
			return mapUniqueViolation(err)
		}
		tok, err := newTokenRow(user.ID)
		if err != nil {
			return err
		}
		if err := tx.Create(tok).Error; err != nil {
			return err
		}
		key = tok.Key
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Login возвращает существующий токен пользователя или выпускает новый.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// хэшируем вхолостую, чтобы время ответа не выдавало существование логина
			_, _ = s.hasher.Hash(password)
			return "", errs.ErrInvalidCredentials
		}
		return "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", errs.ErrInvalidCredentials
	}
	tok, err := s.getOrCreateToken(ctx, user.ID)
	if err != nil {
		return "", err
	}
	return tok.Key, nil
}

func (s *UserService) getOrCreateToken(ctx context.Context, userID uint64) (*model.Token, error) {
	var tok model.Token
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&tok).Error
	if err == nil {
		return &tok, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	row, err := newTokenRow(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		// параллельный логин успел создать токен
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&tok).Error; err == nil {
				return &tok, nil
			}
		}
		return nil, err
	}
	return row, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	var toks []model.Token
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&toks).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Token{}).Error; err != nil {
		return err
	}
	for _, t := range toks {
		if err := s.cache.Delete(ctx, t.Key); err != nil {
			slog.WarnContext(ctx, "token cache: delete", "user_id", userID, "error", err)
		}
	}
	return nil
}

// Authenticate находит владельца bearer-ключа: сначала кэш, затем БД.
func (s *UserService) Authenticate(ctx context.Context, key string) (*model.User, error) {
	if !auth.ValidTokenFormat(key) {
		return nil, errs.ErrInvalidToken
	}
	if id, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "token cache: get", "error", err)
	} else if ok {
		u, err := s.GetByID(ctx, id)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, errs.ErrUserNotFound) {
			return nil, err
		}
		_ = s.cache.Delete(ctx, key)
	}

	var tok model.Token
	if err := s.db.WithContext(ctx).Preload("User").Where(&model.Token{Key: key}).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrInvalidToken
		}
		return nil, err
	}
	if tok.User == nil {
		return nil, errs.ErrInvalidToken
	}
	if err := s.remember(ctx, key, tok.UserID); err != nil {
		return nil, err
	}
	return tok.User, nil
}

// remember кладёт ключ в кэш и затем перепроверяет строку токена:
// Logout, прошедший между чтением и Set, не должен оставить отозванный ключ в кэше.
func (s *UserService) remember(ctx context.Context, key string, userID uint64) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Set(ctx, key, userID); err != nil {
		slog.WarnContext(ctx, "token cache: set", "error", err)
		return nil
	}
	alive, err := exists(s.db.WithContext(ctx), &model.Token{}, &model.Token{Key: key})
	if err != nil {
		return err
	}
	if !alive {
		if err := s.cache.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "token cache: delete", "error", err)
		}
		return errs.ErrInvalidToken
	}
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// EnsureSuperuser создаёт администратора или повышает существующего пользователя.
// Пароль существующего пользователя меняется, только если password не пустой.
func (s *UserService) EnsureSuperuser(ctx context.Context, username, email, password string) (*model.User, bool, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	switch {
	case err == nil:
		changes := map[string]interface{}{"is_superuser": true}
		if email != "" {
			changes["email"] = email
		}
		if password != "" {
			hash, err := s.hasher.Hash(password)
			if err != nil {
				return nil, false, err
			}
			changes["password_hash"] = hash
		}
		if err := s.db.WithContext(ctx).Model(&u).Updates(changes).Error; err != nil {
			return nil, false, mapUniqueViolation(err)
		}
		updated, err := s.GetByID(ctx, u.ID)
		return updated, false, err
	case errors.Is(err, gorm.ErrRecordNotFound):
		if password == "" {
			return nil, false, fmt.Errorf("password is required for a new user")
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, false, err
		}
		u = model.User{Username: username, Email: email, PasswordHash: hash, IsSuperuser: true}
		if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, false, mapUniqueViolation(err)
		}
		return &u, true, nil
	default:
		return nil, false, err
	}
}

func newTokenRow(userID uint64) (*model.Token, error) {
	key, err := auth.NewToken()
	if err != nil {
		return nil, err
	}
	return &model.Token{UserID: userID, Key: key}, nil
}

func exists(tx *gorm.DB, m interface{}, query interface{}, args ...interface{}) (bool, error) {
	var n int64
	if err := tx.Model(m).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// mapUniqueViolation переводит нарушение уникальности users в доменную ошибку.
// Сюда попадаем только при гонке с параллельной регистрацией: обычный путь
// отсекается проверками exists.
func mapUniqueViolation(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.ErrUserExists
	}
	return err
}
