package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	errInvalidData = errors.New("invalid data")

	// custom validation tags & texts
	EmailAddrTag   = "emailaddr"
	emailAddrText  = "Invalid email address!"
	emailAddrRegex = regexp.MustCompile(`^[a-zA-Z0-9.+_-]+@[a-zA-Z0-9._-]+\.[a-zA-Z]+$`)

	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank."

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "Please enter {0}."

	minTag  = "min"
	minText = "The {0} should be at least {1} characters."
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(EmailAddrTag, emailAddrValidation)
	RegisterCustomTranslation(validate, translator, EmailAddrTag, emailAddrText)

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, minTag, minText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// {0} is replaced by the field label and {1} by the tag param.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, FieldLabel(fe.Field()), fe.Param())
			return s
		},
	)
}

// TranslateValidationErrors converts validator errors into FieldErrors keyed by JSON field name.
func TranslateValidationErrors(errs validator.ValidationErrors, translator ut.Translator) []FieldError {
	flds := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
	}
	return flds
}

// CollectFieldErrors wraps validator errors into a *ValidationError caused by `cause`.
// The returned ValidationError has no Fields when err is nil; other errors are wrapped.
func CollectFieldErrors(err error, translator ut.Translator, cause error) (*ValidationError, error) {
	vErr := &ValidationError{Err: cause}
	if err == nil {
		return vErr, nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, errors.Wrap(err, "validating")
	}
	vErr.Fields = TranslateValidationErrors(vErrs, translator)
	return vErr, nil
}

// ValidateStruct validates s and returns a *ValidationError holding every field error, if any.
func ValidateStruct(validate *validator.Validate, translator ut.Translator, s interface{}) error {
	vErr, err := CollectFieldErrors(validate.Struct(s), translator, errInvalidData)
	if err != nil {
		return err
	}
	if len(vErr.Fields) > 0 {
		return vErr
	}
	return nil
}

// FieldLabel turns a JSON field name into a human readable label: first_name -> first name
func FieldLabel(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// Custom Global Validators

// emailAddrValidation only allows simple local@domain.tld addresses.
func emailAddrValidation(fl validator.FieldLevel) bool {
	return emailAddrRegex.MatchString(fl.Field().String())
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
