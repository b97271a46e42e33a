package types

// UpsertUserRequest registers or refreshes a user identified by email.
type UpsertUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// SetupRequest sets the acting user's role and department during onboarding.
type SetupRequest struct {
	Role         UserRole `json:"role"`
	DepartmentID string   `json:"department_id"`
}

// CreateDepartmentRequest adds a department.
type CreateDepartmentRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DepartmentGoalRequest sets a department's goal for one period.
type DepartmentGoalRequest struct {
	Period     string `json:"period"`
	Objectives string `json:"objectives"`
}

// SubmitObjectivesRequest finalizes a batch of objectives for a period.
type SubmitObjectivesRequest struct {
	Period string         `json:"period"`
	OKRs   []NewObjective `json:"okrs"`
}

// CheckInRequest is the weekly check-in form. WeekNumber defaults to the
// current week of the objective's period when omitted.
type CheckInRequest struct {
	WeekNumber *int       `json:"week_number,omitempty"`
	Values     []KRValue  `json:"values"`
	Confidence Confidence `json:"confidence"`
	Notes      string     `json:"notes,omitempty"`
}

// ReminderRequest asks a leader to set the department goal.
type ReminderRequest struct {
	ToUserID     string `json:"to_user_id"`
	DepartmentID string `json:"department_id"`
	Period       string `json:"period"`
}

// DraftRequest saves the creation-flow state.
type DraftRequest struct {
	Period        string            `json:"period"`
	CurrentStep   string            `json:"current_step"`
	Answers       map[string]string `json:"answers"`
	ConfirmedOKRs []ConfirmedOKR    `json:"confirmed_okrs"`
}

// ObjectiveAnswers are the two Q&A answers that seed an AI-drafted objective.
type ObjectiveAnswers struct {
	MostImportantThing string `json:"most_important_thing"`
	WhyImportant       string `json:"why_important"`
}

// KeyResultAnswers are the two Q&A answers that seed AI-drafted key results.
type KeyResultAnswers struct {
	KeyActions      string `json:"key_actions"`
	SuccessCriteria string `json:"success_criteria"`
}

// GenerateObjectiveRequest asks the drafting service for an objective.
type GenerateObjectiveRequest struct {
	DepartmentGoal string           `json:"department_goal"`
	Answers        ObjectiveAnswers `json:"answers"`
}

// GenerateKeyResultsRequest asks the drafting service for key results.
type GenerateKeyResultsRequest struct {
	DepartmentGoal string           `json:"department_goal"`
	Objective      string           `json:"objective"`
	Answers        KeyResultAnswers `json:"answers"`
}

// OptimizeObjectiveRequest asks for a revised objective given feedback.
type OptimizeObjectiveRequest struct {
	Objective      string `json:"objective"`
	Feedback       string `json:"feedback"`
	DepartmentGoal string `json:"department_goal"`
}

// OptimizeKeyResultsRequest asks for revised key results given feedback.
type OptimizeKeyResultsRequest struct {
	Objective  string   `json:"objective"`
	KeyResults []string `json:"key_results"`
	Feedback   string   `json:"feedback"`
}

// DraftingResponse carries drafted text, or feedback when the answer was too vague.
type DraftingResponse struct {
	Objective  string   `json:"objective,omitempty"`
	KeyResults []string `json:"key_results,omitempty"`
	Feedback   string   `json:"feedback,omitempty"`
}

// ObjectiveView is an objective with its derived summary.
type ObjectiveView struct {
	Objective
	Summary ObjectiveSummary `json:"summary"`
}

// MemberOKRs groups a team member's objectives for the team view.
type MemberOKRs struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Image    string          `json:"user_image,omitempty"`
	OKRs     []ObjectiveView `json:"okrs"`
}

// TeamOKRsResponse is the department team page payload.
type TeamOKRsResponse struct {
	DepartmentGoal string       `json:"department_goal"`
	Members        []MemberOKRs `json:"members"`
}

// DepartmentProgress is one department's rollup for a period.
type DepartmentProgress struct {
	DepartmentID   string          `json:"department_id"`
	DepartmentName string          `json:"department_name,omitempty"`
	Period         string          `json:"period"`
	Progress       int             `json:"progress"`
	Trend          []ProgressPoint `json:"trend"`
	ObjectiveCount int             `json:"objective_count"`
}

// CheckInResponse returns the updated objective with the recorded check-in.
type CheckInResponse struct {
	Objective ObjectiveView `json:"objective"`
	CheckIn   WeeklyCheckIn `json:"check_in"`
}

// TrendResponse is the progress-over-time payload for one objective.
type TrendResponse struct {
	ObjectiveID string `json:"objective_id"`
	ObjectiveSummary
}
