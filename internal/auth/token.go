package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	tokenRandomBytes = 20
	// TokenLength — длина ключа в hex-символах.
	TokenLength = tokenRandomBytes * 2
)

func NewToken() (string, error) {
	b := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidTokenFormat отсекает заведомо невалидные ключи до запроса в БД.
func ValidTokenFormat(key string) bool {
	if len(key) != TokenLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
