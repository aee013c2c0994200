package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/nulzo/calx-web/pkg/api"
)

var (
	trans ut.Translator
	once  sync.Once
)

// InitValidator configures gin's validator engine. Safe to call more than once.
func InitValidator() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("bindcode", func(fl validator.FieldLevel) bool {
			return len(api.NormalizeBindCode(fl.Field().String())) == api.BindCodeLength
		})

		locale := en.New()
		uni := ut.New(locale, locale)
		trans, _ = uni.GetTranslator("en")

		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
}

// ParseValidationError converts binding errors into a field -> message map.
// Nested fields keep their path, e.g. "ai_config.temperature".
func ParseValidationError(err error) map[string]string {
	errMap := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errMap["body"] = "Invalid request body format. Please fix your payload."
		return errMap
	}

	for _, e := range validationErrors {
		ns := e.Namespace()
		if i := strings.Index(ns, "."); i != -1 {
			ns = ns[i+1:]
		}

		var msg string
		switch e.Tag() {
		case "oneof":
			msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
		case "bindcode":
			msg = fmt.Sprintf("must be a %d character code", api.BindCodeLength)
		default:
			if trans != nil {
				msg = e.Translate(trans)
			} else {
				msg = e.Error()
			}
		}
		errMap[ns] = msg
	}
	return errMap
}
