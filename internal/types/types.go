package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Confidence is the qualitative forecast of goal attainment.
type Confidence string

const (
	ConfidenceOnTrack  Confidence = "on_track"
	ConfidenceAtRisk   Confidence = "at_risk"
	ConfidenceOffTrack Confidence = "off_track"
)

// Confidences lists every valid Confidence in display order.
var Confidences = []Confidence{ConfidenceOnTrack, ConfidenceAtRisk, ConfidenceOffTrack}

// Valid reports whether c is one of the three known confidence states.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceOnTrack, ConfidenceAtRisk, ConfidenceOffTrack:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown confidence values.
func (c *Confidence) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v := Confidence(s)
	if !v.Valid() {
		return fmt.Errorf("unknown confidence %q", s)
	}
	*c = v
	return nil
}

// MetricType controls how a metric is displayed. It never affects progress math.
type MetricType string

const (
	MetricPercentage MetricType = "percentage"
	MetricNumber     MetricType = "number"
	MetricCurrency   MetricType = "currency"
	MetricBoolean    MetricType = "boolean"
)

// MetricTypes lists every valid MetricType.
var MetricTypes = []MetricType{MetricPercentage, MetricNumber, MetricCurrency, MetricBoolean}

// Valid reports whether t is one of the four known metric types.
func (t MetricType) Valid() bool {
	switch t {
	case MetricPercentage, MetricNumber, MetricCurrency, MetricBoolean:
		return true
	}
	return false
}

// OKRStatus is the lifecycle state of an objective.
type OKRStatus string

const (
	StatusDraft     OKRStatus = "DRAFT"
	StatusSubmitted OKRStatus = "SUBMITTED"
)

// UserRole distinguishes department leaders from members.
type UserRole string

const (
	RoleLeader UserRole = "LEADER"
	RoleMember UserRole = "MEMBER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleLeader || r == RoleMember
}

// ReminderStatus tracks whether a leader acted on a reminder.
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "PENDING"
	ReminderDone    ReminderStatus = "DONE"
)

// Metric is the measurable quantity behind a key result.
// Baseline and Target are fixed at creation; Current moves only through check-ins.
type Metric struct {
	Type     MetricType `json:"type"`
	Baseline float64    `json:"baseline"`
	Target   float64    `json:"target"`
	Current  float64    `json:"current"`
	Unit     string     `json:"unit,omitempty"`
}

// Format renders v using the metric's type and unit.
func (m Metric) Format(v float64) string {
	switch m.Type {
	case MetricCurrency:
		unit := m.Unit
		if unit == "" {
			unit = "$"
		}
		return fmt.Sprintf("%s%s", unit, formatNumber(v))
	case MetricPercentage:
		return formatNumber(v) + "%"
	case MetricBoolean:
		if v >= 1 {
			return "yes"
		}
		return "no"
	}
	if m.Unit != "" {
		return formatNumber(v) + " " + m.Unit
	}
	return formatNumber(v)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// KeyResult is a measurable sub-goal owned by exactly one objective.
type KeyResult struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Metric     Metric     `json:"metric"`
	Progress   int        `json:"progress"`
	Confidence Confidence `json:"confidence"`
}

// KRValue is one submitted metric reading for a key result.
type KRValue struct {
	KeyResultID string  `json:"kr_id"`
	Value       float64 `json:"value"`
}

// KRProgress records a key result's value and derived progress at check-in time.
type KRProgress struct {
	KeyResultID string  `json:"kr_id"`
	Value       float64 `json:"value"`
	Progress    int     `json:"progress"`
}

// WeeklyCheckIn is the snapshot recorded for one objective in one week of a period.
type WeeklyCheckIn struct {
	ID              string       `json:"id"`
	WeekNumber      int          `json:"week_number"`
	Date            time.Time    `json:"date"`
	KRProgress      []KRProgress `json:"kr_progress"`
	OverallProgress int          `json:"overall_progress"`
	Confidence      Confidence   `json:"confidence"`
	Notes           string       `json:"notes,omitempty"`
}

// Objective is a qualitative goal for one period with its ordered key results.
type Objective struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	DepartmentID string          `json:"department_id,omitempty"`
	Period       string          `json:"period"`
	Objective    string          `json:"objective"`
	Status       OKRStatus       `json:"status"`
	IsArchived   bool            `json:"is_archived"`
	KeyResults   []KeyResult     `json:"key_results"`
	CheckIns     []WeeklyCheckIn `json:"check_ins"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProgressPoint is one week of a trend series.
type ProgressPoint struct {
	WeekNumber int `json:"week_number"`
	Progress   int `json:"progress"`
}

// ObjectiveSummary bundles the derived figures rendered next to an objective.
type ObjectiveSummary struct {
	Progress         int             `json:"progress"`
	LatestConfidence Confidence      `json:"latest_confidence"`
	Trend            []ProgressPoint `json:"trend"`
}

// User is an authenticated person using the tracker.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Image        string    `json:"image,omitempty"`
	Role         UserRole  `json:"role,omitempty"`
	DepartmentID string    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Department groups users under one leader.
type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LeaderID    string    `json:"leader_id,omitempty"`
	LeaderName  string    `json:"leader_name,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DepartmentGoal is the leader's bi-monthly goal statement for a department.
type DepartmentGoal struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Period       string    `json:"period"`
	Objectives   string    `json:"objectives"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reminder is a member's nudge asking a leader to set the department goal.
type Reminder struct {
	ID           string         `json:"id"`
	FromUserID   string         `json:"from_user_id"`
	ToUserID     string         `json:"to_user_id"`
	DepartmentID string         `json:"department_id"`
	Period       string         `json:"period"`
	Status       ReminderStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ConfirmedOKR is an objective accepted during the creation flow but not yet submitted.
type ConfirmedOKR struct {
	Objective  string         `json:"objective"`
	KeyResults []NewKeyResult `json:"key_results"`
}

// Draft is the auto-saved state of a user's OKR creation flow.
type Draft struct {
	UserID        string            `json:"user_id"`
	Period        string            `json:"period"`
	CurrentStep   string            `json:"current_step"`
	Answers       map[string]string `json:"answers"`
	ConfirmedOKRs []ConfirmedOKR    `json:"confirmed_okrs"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewMetric is the input form of a metric. Current starts at Baseline.
type NewMetric struct {
	Type     MetricType `json:"type"`
	Baseline float64    `json:"baseline"`
	Target   float64    `json:"target"`
	Unit     string     `json:"unit,omitempty"`
}

// NewKeyResult is the input form of a key result.
type NewKeyResult struct {
	Content string     `json:"content"`
	Metric  *NewMetric `json:"metric,omitempty"`
}

// NewObjective is the input form of an objective.
type NewObjective struct {
	Objective  string         `json:"objective"`
	KeyResults []NewKeyResult `json:"key_results"`
}

// DefaultMetric is used when a key result is entered without a metric.
func DefaultMetric() NewMetric {
	return NewMetric{Type: MetricPercentage, Baseline: 0, Target: 100, Unit: "%"}
}

// StoreStats holds aggregate counts reported by the health endpoint.
type StoreStats struct {
	ObjectiveCount int64      `json:"objective_count"`
	CheckInCount   int64      `json:"check_in_count"`
	LastBackup     *time.Time `json:"last_backup"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string     `json:"status"`
	Version        string     `json:"version"`
	DraftingModel  string     `json:"drafting_model"`
	ObjectiveCount int64      `json:"objective_count"`
	CheckInCount   int64      `json:"check_in_count"`
	LastBackup     *time.Time `json:"last_backup"`
}
