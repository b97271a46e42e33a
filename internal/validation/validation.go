package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/okrpulse/internal/period"
	"github.com/hyperengineering/okrpulse/internal/types"
)

// Field limits for free-text inputs.
const (
	MaxObjectiveLength = 500
	MaxKeyResultLength = 500
	MaxNotesLength     = 2000
	MaxGoalLength      = 4000
	MaxAnswerLength    = 2000
	MaxUnitLength      = 16
	MaxKeyResults      = 10
	MaxNameLength      = 200
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// text runs the checks shared by every free-text field.
func (c *Collector) text(field, value string, max int, required bool) {
	if required {
		if err := ValidateRequired(field, value); err != nil {
			c.Add(err)
			return
		}
	}
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateULID returns an error if the value is not a valid ULID format.
// ULIDs are 26 characters using Crockford Base32 (excludes I, L, O, U).
func ValidateULID(field, value string) *ValidationError {
	if len(value) != 26 {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	}

	const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	for _, r := range strings.ToUpper(value) {
		if !strings.ContainsRune(crockfordBase32, r) {
			return &ValidationError{
				Field:   field,
				Message: "must be a valid ULID (invalid character)",
			}
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateFinite returns an error for NaN and infinite values.
func ValidateFinite(field string, value float64) *ValidationError {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{
			Field:   field,
			Message: "must be a finite number",
		}
	}
	return nil
}

// ValidatePeriod returns an error if value is not a "YYYY-MM/MM" period.
func ValidatePeriod(field, value string) *ValidationError {
	if _, err := period.Parse(value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a period like 2026-01/02",
		}
	}
	return nil
}

// ValidateSlug returns an error unless value is a lowercase department id.
func ValidateSlug(field, value string) *ValidationError {
	if value == "" || len(value) > 64 {
		return &ValidationError{Field: field, Message: "must be 1-64 characters"}
	}
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return &ValidationError{Field: field, Message: "must contain only a-z, 0-9 and -"}
		}
	}
	return nil
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// ValidateNewObjective checks one objective and its key results. prefix scopes
// field names, e.g. "okrs[2]".
func ValidateNewObjective(prefix string, obj types.NewObjective) []ValidationError {
	var c Collector
	c.text(prefix+".objective", obj.Objective, MaxObjectiveLength, true)

	switch {
	case len(obj.KeyResults) == 0:
		c.Add(&ValidationError{Field: prefix + ".key_results", Message: "must contain at least one key result"})
	case len(obj.KeyResults) > MaxKeyResults:
		c.Add(&ValidationError{Field: prefix + ".key_results", Message: fmt.Sprintf("must contain at most %d key results", MaxKeyResults)})
	}

	for i, kr := range obj.KeyResults {
		field := fmt.Sprintf("%s.key_results[%d]", prefix, i)
		c.text(field+".content", kr.Content, MaxKeyResultLength, true)
		if kr.Metric == nil {
			continue
		}
		m := kr.Metric
		if !m.Type.Valid() {
			c.Add(ValidateEnum(field+".metric.type", string(m.Type), enumStrings(types.MetricTypes)))
		}
		c.Add(ValidateFinite(field+".metric.baseline", m.Baseline))
		c.Add(ValidateFinite(field+".metric.target", m.Target))
		c.Add(ValidateMaxLength(field+".metric.unit", m.Unit, MaxUnitLength))
	}
	return c.Errors()
}

// ValidateSubmitObjectives checks a batch submission. minObjectives is the
// least number of objectives a user must submit for a period.
func ValidateSubmitObjectives(req types.SubmitObjectivesRequest, minObjectives int) []ValidationError {
	var c Collector
	c.Add(ValidatePeriod("period", req.Period))
	if len(req.OKRs) < minObjectives {
		c.Add(&ValidationError{
			Field:   "okrs",
			Message: fmt.Sprintf("must contain at least %d objectives", minObjectives),
		})
	}
	for i, obj := range req.OKRs {
		for _, e := range ValidateNewObjective(fmt.Sprintf("okrs[%d]", i), obj) {
			c.Add(&e)
		}
	}
	return c.Errors()
}

// ValidateCheckInRequest checks the shape of a check-in form. Key result
// membership and week bounds are checked against the stored objective later.
func ValidateCheckInRequest(req types.CheckInRequest) []ValidationError {
	var c Collector
	if req.WeekNumber != nil && *req.WeekNumber < 1 {
		c.Add(&ValidationError{Field: "week_number", Message: "must be at least 1"})
	}
	if len(req.Values) == 0 {
		c.Add(&ValidationError{Field: "values", Message: "select at least one key result to check in"})
	}
	for i, v := range req.Values {
		c.Add(ValidateRequired(fmt.Sprintf("values[%d].kr_id", i), v.KeyResultID))
		c.Add(ValidateFinite(fmt.Sprintf("values[%d].value", i), v.Value))
	}
	if !req.Confidence.Valid() {
		c.Add(ValidateEnum("confidence", string(req.Confidence), enumStrings(types.Confidences)))
	}
	c.text("notes", req.Notes, MaxNotesLength, false)
	return c.Errors()
}

// ValidateDepartmentGoal checks a leader's goal statement.
func ValidateDepartmentGoal(req types.DepartmentGoalRequest) []ValidationError {
	var c Collector
	c.Add(ValidatePeriod("period", req.Period))
	c.text("objectives", req.Objectives, MaxGoalLength, true)
	return c.Errors()
}

// ValidateReminder checks a reminder request.
func ValidateReminder(req types.ReminderRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("to_user_id", req.ToUserID))
	c.Add(ValidateRequired("department_id", req.DepartmentID))
	c.Add(ValidatePeriod("period", req.Period))
	return c.Errors()
}

// ValidateUpsertUser checks a user registration.
func ValidateUpsertUser(req types.UpsertUserRequest) []ValidationError {
	var c Collector
	c.text("email", req.Email, MaxNameLength, true)
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		c.Add(&ValidationError{Field: "email", Message: "must be an email address"})
	}
	c.text("name", req.Name, MaxNameLength, true)
	return c.Errors()
}

// ValidateSetup checks the onboarding role selection.
func ValidateSetup(req types.SetupRequest) []ValidationError {
	var c Collector
	if !req.Role.Valid() {
		c.Add(ValidateEnum("role", string(req.Role), []string{string(types.RoleLeader), string(types.RoleMember)}))
	}
	c.Add(ValidateRequired("department_id", req.DepartmentID))
	return c.Errors()
}

// ValidateCreateDepartment checks a new department.
func ValidateCreateDepartment(req types.CreateDepartmentRequest) []ValidationError {
	var c Collector
	c.Add(ValidateSlug("id", req.ID))
	c.text("name", req.Name, MaxNameLength, true)
	return c.Errors()
}

// ValidateDraft checks a saved creation-flow state.
func ValidateDraft(req types.DraftRequest) []ValidationError {
	var c Collector
	c.Add(ValidatePeriod("period", req.Period))
	c.text("current_step", req.CurrentStep, 64, false)
	for k, v := range req.Answers {
		c.text("answers."+k, v, MaxAnswerLength, false)
	}
	for i, okr := range req.ConfirmedOKRs {
		obj := types.NewObjective{Objective: okr.Objective, KeyResults: okr.KeyResults}
		for _, e := range ValidateNewObjective(fmt.Sprintf("confirmed_okrs[%d]", i), obj) {
			c.Add(&e)
		}
	}
	return c.Errors()
}

// ValidateGenerateObjective checks the Q&A answers that seed an objective.
func ValidateGenerateObjective(req types.GenerateObjectiveRequest) []ValidationError {
	var c Collector
	c.text("answers.most_important_thing", req.Answers.MostImportantThing, MaxAnswerLength, true)
	c.text("answers.why_important", req.Answers.WhyImportant, MaxAnswerLength, true)
	c.text("department_goal", req.DepartmentGoal, MaxGoalLength, false)
	return c.Errors()
}

// ValidateGenerateKeyResults checks the Q&A answers that seed key results.
func ValidateGenerateKeyResults(req types.GenerateKeyResultsRequest) []ValidationError {
	var c Collector
	c.text("objective", req.Objective, MaxObjectiveLength, true)
	c.text("answers.key_actions", req.Answers.KeyActions, MaxAnswerLength, true)
	c.text("answers.success_criteria", req.Answers.SuccessCriteria, MaxAnswerLength, true)
	c.text("department_goal", req.DepartmentGoal, MaxGoalLength, false)
	return c.Errors()
}

// ValidateOptimizeObjective checks an objective revision request.
func ValidateOptimizeObjective(req types.OptimizeObjectiveRequest) []ValidationError {
	var c Collector
	c.text("objective", req.Objective, MaxObjectiveLength, true)
	c.text("feedback", req.Feedback, MaxAnswerLength, true)
	c.text("department_goal", req.DepartmentGoal, MaxGoalLength, false)
	return c.Errors()
}

// ValidateOptimizeKeyResults checks a key result revision request.
func ValidateOptimizeKeyResults(req types.OptimizeKeyResultsRequest) []ValidationError {
	var c Collector
	c.text("objective", req.Objective, MaxObjectiveLength, true)
	c.text("feedback", req.Feedback, MaxAnswerLength, true)
	if len(req.KeyResults) == 0 {
		c.Add(&ValidationError{Field: "key_results", Message: "must contain at least one key result"})
	}
	for i, kr := range req.KeyResults {
		c.text(fmt.Sprintf("key_results[%d]", i), kr, MaxKeyResultLength, true)
	}
	return c.Errors()
}
