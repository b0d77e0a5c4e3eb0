package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
)

const MinPasswordLength = 8

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("generate password hash: %w", err)
	}
	return string(hash), nil
}

// Verify не различает неверный пароль и повреждённый хэш.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {},
	"123456789": {}, "1234567890": {}, "qwertyuiop": {}, "qwerty123": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {},
	"baseball": {}, "welcome1": {}, "abc12345": {}, "letmein1": {},
	"trustno1": {}, "superman": {}, "starwars": {}, "passw0rd": {},
	"11111111": {}, "00000000": {}, "aaaaaaaa": {}, "changeme": {},
}

// ValidatePassword проверяет пароль и возвращает *errs.PasswordError со всеми нарушениями.
func ValidatePassword(password, username, email string) error {
	var msgs []string
	if len([]rune(password)) < MinPasswordLength {
		msgs = append(msgs, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		msgs = append(msgs, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		msgs = append(msgs, "This password is entirely numeric.")
	}
	for _, attr := range similarityAttrs(username, email) {
		if strings.Contains(lower, attr) || strings.Contains(attr, lower) {
			msgs = append(msgs, "The password is too similar to the username or email.")
			break
		}
	}
	if len(msgs) > 0 {
		return &errs.PasswordError{Messages: msgs}
	}
	return nil
}

func similarityAttrs(username, email string) []string {
	var out []string
	if u := strings.ToLower(strings.TrimSpace(username)); len(u) >= 3 {
		out = append(out, u)
	}
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	if len(local) >= 3 {
		out = append(out, local)
	}
	return out
}
