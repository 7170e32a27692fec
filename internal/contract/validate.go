package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// nameRegex lists the characters allowed in user and form names.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9 _.@]+$`)

// formValidate is the validator instance for form identities.
// Initialized in init() with custom validators.
var formValidate *validator.Validate

func init() {
	formValidate = validator.New()
	_ = formValidate.RegisterValidation("safename", validateSafeName)
}

// validateSafeName rejects names with characters outside nameRegex.
func validateSafeName(fl validator.FieldLevel) bool {
	return nameRegex.MatchString(fl.Field().String())
}

// FormIdentity names a stored form.
type FormIdentity struct {
	User string `validate:"required,max=64,safename"`
	Form string `validate:"required,max=64,safename"`
}

// ValidateFormIdentity checks a user and form name pair. Failures wrap ErrValidation.
func ValidateFormIdentity(user, form string) error {
	id := FormIdentity{User: strings.TrimSpace(user), Form: strings.TrimSpace(form)}
	if err := formValidate.Struct(id); err != nil {
		return translateValidation(err)
	}
	return nil
}

// ValidateUser checks a user name on its own. Failures wrap ErrValidation.
func ValidateUser(user string) error {
	if err := formValidate.Var(strings.TrimSpace(user), "required,max=64,safename"); err != nil {
		return translateValidation(err)
	}
	return nil
}

// translateValidation turns validator errors into readable ErrValidation errors.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if field == "" {
			field = "name"
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "safename":
			msgs = append(msgs, fmt.Sprintf("%s may only contain letters, digits, spaces and _ . @", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return ValidationErrorf("%s", strings.Join(msgs, "; "))
}
