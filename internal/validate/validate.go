// Package validate — проверка форм до отправки на бэкенд.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	institutionalTag = "institutional_email"
	requiredTag      = "required"
)

// FieldError — ошибка одного поля формы (имя поля из json-тега).
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error)
	}
	return strings.Join(msgs, "; ")
}

// First — первое сообщение: форма в чате спрашивает по одному полю.
func (e *ValidationError) First() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Error
}

type Validator struct {
	v      *validator.Validate
	tr     ut.Translator
	domain string
}

// New — валидатор с английскими сообщениями; domain — обязательный суффикс email ("@tec.rjt.ac.lk").
func New(domain string) *Validator {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain != "" && !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}

	v := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	tr, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, tr)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	val := &Validator{v: v, tr: tr, domain: domain}
	_ = v.RegisterValidation(institutionalTag, val.institutional)
	val.translation(institutionalTag, "{0} must be an institutional address ending with "+domain, false)
	val.translation(requiredTag, "{0} is required", true)
	return val
}

func (val *Validator) translation(tag, text string, override bool) {
	_ = val.v.RegisterTranslation(
		tag, val.tr,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func (val *Validator) institutional(fl validator.FieldLevel) bool {
	if val.domain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(fl.Field().String())), val.domain)
}

// Domain — суффикс, который показываем в подсказках.
func (val *Validator) Domain() string { return val.domain }

// Struct проверяет структуру по её validate-тегам.
// Ошибки полей возвращаются как *ValidationError.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Error: fe.Translate(val.tr)})
	}
	return out
}

// Var проверяет одно значение (пошаговые формы в чате).
func (val *Validator) Var(field string, value any, tag string) error {
	err := val.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		// у Var нет имени поля: перевод начинается с пустого {0}
		msg := field + " " + strings.TrimSpace(fe.Translate(val.tr))
		out.Fields = append(out.Fields, FieldError{Field: field, Error: msg})
	}
	return out
}
