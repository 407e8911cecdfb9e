package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCity — базовая (sentinel error) ошибка валидации города.
var ErrInvalidCity = errors.New("city validation failed")

// MaxCityLen — самое длинное название населённого пункта укладывается в этот лимит (в рунах).
const MaxCityLen = 85

// Буквы любых алфавитов, диакритика, цифры, пробел и . , ' -
var cityPattern = regexp.MustCompile(`^[\p{L}\p{M}0-9 .,'\-]+$`)

var (
	cityValidator     *validator.Validate
	cityValidatorOnce sync.Once
)

func instance() *validator.Validate {
	cityValidatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("cityname", func(fl validator.FieldLevel) bool {
			return cityPattern.MatchString(fl.Field().String())
		})
		cityValidator = v
	})
	return cityValidator
}

// City — проверяет пользовательский идентификатор города (HTTP query, Kafka, CLI)
// и возвращает его без пробелов по краям. Регистр не меняется: это задача domain.NormalizeKey.
func City(raw string) (string, error) {
	city := strings.TrimSpace(raw)
	if city == "" {
		return "", fmt.Errorf("%w: city обязателен", ErrInvalidCity)
	}
	if err := instance().Var(city, fmt.Sprintf("max=%d,cityname", MaxCityLen)); err != nil {
		return "", fmt.Errorf("%w: city %q: %v", ErrInvalidCity, truncate(city, 32), err)
	}
	return city, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
