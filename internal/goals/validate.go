package goals

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/beefriend/beefriend-api/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// nonblank rejects whitespace-only strings.
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks a tagged struct and reports failures as a
// *models.ValidationError keyed by JSON field path.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = message(fe)
	}
	return &models.ValidationError{Fields: fields}
}

type goalList struct {
	Goals []models.Goal `json:"goals" validate:"unique=GoalName,dive"`
}

// ValidateGoals checks every goal and task and rejects duplicate goal names.
func ValidateGoals(gs []models.Goal) error {
	return Validate(goalList{Goals: gs})
}

type goalInputList struct {
	Goals []models.GoalInput `json:"goals" validate:"dive"`
}

// ValidateGoalInputs checks goals as submitted, before defaults and derived
// progress are applied. A submitted progress must be within 0-100 and a
// goal name may appear only once per request.
func ValidateGoalInputs(ins []models.GoalInput) error {
	if err := Validate(goalInputList{Goals: ins}); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(ins))
	for _, in := range ins {
		name := strings.TrimSpace(in.GoalName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			return models.NewValidationError("goals", "must not repeat "+jsonNames["GoalName"])
		}
		seen[name] = struct{}{}
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var jsonNames = map[string]string{
	"Name":      "name",
	"GoalName":  "goalName",
	"StartDate": "startDate",
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "nonblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gtefield":
		return "must not be before " + jsonNames[fe.Param()]
	case "unique":
		return "must not repeat " + jsonNames[fe.Param()]
	default:
		return "failed " + fe.Tag()
	}
}
