package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
)

type fieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// respondError переводит доменную ошибку в HTTP-статус и тело {"error": ...}.
func respondError(c *gin.Context, err error) {
	var pe *errs.PasswordError
	switch {
	case errors.As(err, &pe):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password validation failed", "details": pe.Messages})
	case errors.Is(err, errs.ErrUserNotFound),
		errors.Is(err, errs.ErrTicketNotFound),
		errors.Is(err, errs.ErrSolutionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUsernameTaken),
		errors.Is(err, errs.ErrEmailTaken),
		errors.Is(err, errs.ErrUserExists),
		errors.Is(err, errs.ErrInvalidPriority),
		errors.Is(err, errs.ErrInvalidStatus),
		errors.Is(err, errs.ErrNoChanges),
		errors.Is(err, errs.ErrUnknownSystem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrDocumentMissing):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrInvalidCredentials), errors.Is(err, errs.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrGeneration):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate AI solution"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// respondBindError: ошибки валидатора отдаём по полям, прочие как "invalid body".
func respondBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	fields := make([]fieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fieldError{Field: jsonName(fe.Field()), Error: describe(fe)})
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "fields": fields})
}

// requireText обрезает пробелы у строковых полей и отклоняет пустые после обрезки.
// Валидатор проверяет значение до TrimSpace, поэтому "   " проходит required.
func requireText(c *gin.Context, fields map[string]*string) bool {
	var blank []fieldError
	for _, name := range sortedKeys(fields) {
		v := fields[name]
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if *v == "" {
			blank = append(blank, fieldError{Field: name, Error: "this field may not be blank"})
		}
	}
	if len(blank) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "fields": blank})
		return false
	}
	return true
}

func sortedKeys(m map[string]*string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "min":
		return "ensure this field has at least " + fe.Param() + " characters"
	}
	return "failed on " + fe.Tag()
}

// jsonName: Username -> username, AssignedTo -> assigned_to.
func jsonName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
