package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"teamspark/internal/transport/http/api"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// DecodeValid decodes the JSON body into payload and runs its `validate`
// struct tags. On failure the 400 response has already been written and the
// caller returns immediately.
func DecodeValid(w http.ResponseWriter, r *http.Request, payload any, requestID string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body is not valid JSON", requestID)
		return false
	}
	if err := validate.Struct(payload); err != nil {
		var issues []ValidationIssue
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				issues = append(issues, ValidationIssue{
					Field:  strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
					Reason: reasonFor(fe),
				})
			}
		}
		FailValidation(w, requestID, issues)
		return false
	}
	return true
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_failed", "request validation failed", issues, requestID)
}
