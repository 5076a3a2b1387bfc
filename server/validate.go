package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
)

func init() {
	validate = validator.New()

	// english messages for validation errors
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report JSON names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(str) != ""
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(ut.Translator, validator.FieldError) string { return "this field cannot be blank" },
	)
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to parse request body", coursecart.ErrInvalidRequest)
	}

	return validate.Struct(dst)
}

// fieldErrors maps each invalid field to a readable message.
func fieldErrors(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(translator)
	}
	return fields
}

type friendRequestBody struct {
	Username string `json:"username" validate:"required,notblank,max=128"`
}

type commentBody struct {
	Message string `json:"message" validate:"required,notblank,max=1000"`
}

type reviewBody struct {
	Subject       string `json:"subject" validate:"required,alpha,max=8"`
	CatalogNumber string `json:"catalog_number" validate:"required,alphanum,max=8"`
	Text          string `json:"review_text" validate:"required,notblank,max=5000"`
}

type profileBody struct {
	FirstName string `json:"first_name" validate:"max=64"`
	LastName  string `json:"last_name" validate:"max=64"`
	GradYear  int    `json:"grad_year" validate:"omitempty,gte=1900,lte=2200"`
	Major     string `json:"major" validate:"max=64"`
	Email     string `json:"email" validate:"omitempty,email"`
}
