package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps JSON field names to user-friendly labels
var FieldLabels = map[string]string{
	"email":        "Email",
	"password":     "Password",
	"first_name":   "First name",
	"last_name":    "Last name",
	"role":         "Role",
	"title":        "Title",
	"description":  "Description",
	"location":     "Location",
	"salary_range": "Salary range",
	"deadline":     "Deadline",
	"text":         "Question text",
	"company":      "Company",
	"dates":        "Dates",
	"degree":       "Degree",
	"institution":  "Institution",
	"year":         "Year",
	"name":         "Name",
	"issuer":       "Issuer",
	"skills":       "Skills",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// Message joins the formatted errors into a single line.
func Message(err error) string {
	return strings.Join(FormatValidationErrors(err), "; ")
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required", "no_blank":
		return fmt.Sprintf("%s: This field may not be blank", label)
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: Must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s: Must be at least %s", label, param)
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: Must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s: Must be at most %s", label, param)
	case "email":
		return fmt.Sprintf("%s: Enter a valid email address", label)
	case "datetime":
		return fmt.Sprintf("%s: Date has wrong format, use YYYY-MM-DD", label)
	case "role":
		return fmt.Sprintf("%s: Must be one of SEEKER, HR", label)
	case "oneof":
		return fmt.Sprintf("%s: Must be one of %s", label, strings.ReplaceAll(param, " ", ", "))
	case "no_emoji":
		return fmt.Sprintf("%s: Must not contain emoji", label)
	default:
		return fmt.Sprintf("%s: Invalid value (%s)", label, e.Tag())
	}
}

func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return fieldName
}
