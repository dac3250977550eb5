package coverletters

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// String limits count characters, not bytes.
type titleRules struct {
	Title string `json:"title" validate:"required,max=100"`
}

type draftRules struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=100"`
	TargetCompany *string `json:"targetCompany" validate:"omitempty,max=100"`
	TargetJob     *string `json:"targetJob" validate:"omitempty,max=100"`
}

type settingsRules struct {
	Questions         []string `json:"questions" validate:"max=10,dive,max=500"`
	Tone              string   `json:"tone" validate:"max=30"`
	LengthPerQuestion *int     `json:"lengthPerQuestion" validate:"omitempty,min=100,max=5000"`
}

func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	issues := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, FieldIssue{Field: fieldPath(fe), Issue: describe(fe)})
	}
	return &ValidationError{Issues: issues}
}

// fieldPath drops the root struct name: "settingsRules.questions[2]" becomes
// "questions[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must not be empty"
		}
		return "must be at least " + fe.Param()
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return "must be at most " + fe.Param() + " characters"
		case reflect.Slice:
			return "must have at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

func validateTitle(title string) error {
	return validateStruct(titleRules{Title: title})
}

func validateDraft(in DraftInput) error {
	return validateStruct(draftRules{Title: in.Title, TargetCompany: in.TargetCompany, TargetJob: in.TargetJob})
}

func validateSettings(in SettingsInput) error {
	return validateStruct(settingsRules{
		Questions:         in.Questions,
		Tone:              in.Tone,
		LengthPerQuestion: in.LengthPerQuestion,
	})
}
