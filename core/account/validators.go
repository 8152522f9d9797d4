package account

import (
	"context"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
)

var (
	signupRoleTag  = "signuprole"
	signupRoleText = "{0} must be one of: student, instructor."

	// password policy
	pwdMinLen = 8

	pwdMissingTag  = "pwdmissing"
	pwdMissingText = "Please enter and confirm your password."

	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = "Password should be at least 8 characters."

	pwdMismatchTag  = "pwdmismatch"
	pwdMismatchText = "Passwords do not match."

	loginField = "login"
	loginText  = "Invalid email or password."

	errInvalidSignup = errors.New("invalid signup")
	errInvalidUpdate = errors.New("invalid account update")
	errInvalidReset  = errors.New("invalid password reset")
	errInvalidLogin  = errors.New("invalid login")
)

// InitValidators registers the account validators and their translations.
// core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(signupRoleTag, signupRoleValidation)
	core.RegisterCustomTranslation(validate, translator, signupRoleTag, signupRoleText)

	validate.RegisterStructValidation(accountStructValidation, NewAccount{}, UpdateAccount{}, ResetPassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMissingTag, pwdMissingText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdMismatchTag, pwdMismatchText)
}

// Validate checks every signup field independently; all errors are collected.
// The email uniqueness check only runs when the email is well formed.
func (na *NewAccount) Validate(ctx context.Context, validate *validator.Validate, translator ut.Translator, svc Service) error {
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Address = core.CleanString(na.Address)
	na.Role = core.CleanString(na.Role, true /* lower */)

	vErr, err := core.CollectFieldErrors(validate.Struct(na), translator, errInvalidSignup)
	if err != nil {
		return err
	}
	if !vErr.HasField("email") {
		if err := svc.CheckEmailUniqueness(ctx, na.Email); err != nil {
			if err != ErrEmailExists {
				return errors.Wrap(err, "checking email uniqueness")
			}
			vErr.Fields = append(vErr.Fields, core.FieldError{Field: "email", Error: err.Error()})
		}
	}

	if len(vErr.Fields) > 0 {
		return vErr
	}
	return nil
}

func (ua *UpdateAccount) Validate(validate *validator.Validate, translator ut.Translator) error {
	ua.FirstName = core.CleanString(ua.FirstName)
	ua.LastName = core.CleanString(ua.LastName)
	ua.Address = core.CleanString(ua.Address)
	ua.Role = core.CleanString(ua.Role, true /* lower */)

	vErr, err := core.CollectFieldErrors(validate.Struct(ua), translator, errInvalidUpdate)
	if err != nil {
		return err
	}
	if len(vErr.Fields) > 0 {
		return vErr
	}
	return nil
}

// Validate only checks that both credentials are provided.
func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	if lr.Email == "" || lr.Password == "" {
		return core.NewValidationError(errInvalidLogin, core.FieldError{Field: loginField, Error: loginText})
	}
	return nil
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.ValidateStruct(validate, translator, pr)
}

func (rp *ResetPassword) Validate(validate *validator.Validate, translator ut.Translator) error {
	rp.Token = core.CleanString(rp.Token)
	rp.UID = core.CleanString(rp.UID)
	vErr, err := core.CollectFieldErrors(validate.Struct(rp), translator, errInvalidReset)
	if err != nil {
		return err
	}
	if len(vErr.Fields) > 0 {
		return vErr
	}
	return nil
}

// Custom Validators

// signupRoleValidation only allows the roles one can sign up with; admins are created by the admin CLI.
func signupRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range SignupRoles {
		if role == r {
			return true
		}
	}
	return false
}

// accountStructValidation does struct level validation on the password fields.
func accountStructValidation(sl validator.StructLevel) {
	switch acc := sl.Current().Interface().(type) {
	case NewAccount:
		validatePassword(acc.Password, acc.PasswordConfirm, sl)
	case UpdateAccount:
		if acc.Password != "" || acc.PasswordConfirm != "" {
			validatePassword(acc.Password, acc.PasswordConfirm, sl)
		}
	case ResetPassword:
		validatePassword(acc.Password, acc.PasswordConfirm, sl)
	}
}

// validatePassword reports at most one error for the password group:
// - both password and confirmation are required
// - minLen: 8
// - password and confirmation must match
func validatePassword(pwd, confirm string, sl validator.StructLevel) {
	switch {
	case pwd == "" || confirm == "":
		sl.ReportError(pwd, "password", "Password", pwdMissingTag, "")
	case utf8.RuneCountInString(pwd) < pwdMinLen:
		sl.ReportError(pwd, "password", "Password", pwdMinLenTag, "")
	case pwd != confirm:
		sl.ReportError(confirm, "password_confirm", "PasswordConfirm", pwdMismatchTag, "")
	}
}
