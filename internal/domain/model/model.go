// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
)

// Canonical raw metric names. All values are numeric; bounds are enforced
// by the preprocessor, not by the type.
const (
	HoursPerWeek      = "hours_per_week"
	OvertimeHours     = "overtime_hours"
	MeetingsPerDay    = "meetings_per_day"
	ManagerSupport    = "manager_support_score"
	VacationDaysTaken = "vacation_days_taken"
	AfterHoursEmails  = "after_hours_emails"
	DeadlinePressure  = "deadline_pressure"
	WorkLifeBalance   = "work_life_balance_score"
	TeamCollaboration = "team_collaboration_score"
	DailyBreaks       = "daily_breaks"
	WeekendWorkDays   = "weekend_work_days"
	RoleClarity       = "role_clarity_score"
	JobTenureMonths   = "job_tenure_months"
)

// Engineered feature names derived from the raw metrics.
const (
	WorkloadIntensity = "workload_intensity"
	SupportDeficit    = "support_deficit"
	WLBComposite      = "wlb_composite"
	PressureNoSupport = "pressure_no_support"
	TenureFactor      = "tenure_factor"
)

// RawMetrics lists the canonical raw metric names in a fixed order.
func RawMetrics() []string {
	return []string{
		HoursPerWeek, OvertimeHours, MeetingsPerDay, ManagerSupport,
		VacationDaysTaken, AfterHoursEmails, DeadlinePressure,
		WorkLifeBalance, TeamCollaboration, DailyBreaks,
		WeekendWorkDays, RoleClarity, JobTenureMonths,
	}
}

// FeatureVector maps metric names to numeric values. A missing metric is
// represented by an absent key, never by NaN.
type FeatureVector map[string]float64

// Clone returns a deep copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// RiskCategory is the ordinal burnout severity label.
type RiskCategory int

// Risk categories in ascending severity.
const (
	Low RiskCategory = iota
	Medium
	High
	Critical
)

// NumCategories is the number of risk classes the model distinguishes.
const NumCategories = 4

// Categories returns all risk categories in ascending severity order.
func Categories() []RiskCategory {
	return []RiskCategory{Low, Medium, High, Critical}
}

func (c RiskCategory) String() string {
	switch c {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("RiskCategory(%d)", int(c))
	}
}

// ParseRiskCategory converts a category name to its enum value.
func ParseRiskCategory(s string) (RiskCategory, error) {
	switch s {
	case "Low":
		return Low, nil
	case "Medium":
		return Medium, nil
	case "High":
		return High, nil
	case "Critical":
		return Critical, nil
	default:
		return Low, fmt.Errorf("unknown risk category: %q", s)
	}
}

// TrainingRow is a labeled feature vector. Prior to preprocessing the
// vector may have gaps for a subset of score-type fields.
type TrainingRow struct {
	Features FeatureVector
	Category RiskCategory
}

// Clone returns a deep copy of the row.
func (r TrainingRow) Clone() TrainingRow {
	return TrainingRow{Features: r.Features.Clone(), Category: r.Category}
}

// PredictionResult is the full outcome of one inference call.
// Field names mirror the wire schema for POST /predict.
type PredictionResult struct {
	Category      RiskCategory       `json:"-"`
	CategoryName  string             `json:"predicted_risk_category"`
	Confidence    float64            `json:"confidence_score"`
	Probabilities map[string]float64 `json:"class_probabilities"`
	Reliability   string             `json:"prediction_reliability"`
	Priority      string             `json:"intervention_priority"`
}

// ProbabilitySum returns the total probability mass; valid results sum to
// 1.0 within floating tolerance.
func (p PredictionResult) ProbabilitySum() float64 {
	var sum float64
	for _, v := range p.Probabilities {
		sum += v
	}
	return sum
}

// FeatureImportance is one entry of the ranked importance table.
type FeatureImportance struct {
	Name   string  `json:"feature"`
	Weight float64 `json:"importance"`
}

// ClassMetrics holds per-category evaluation results on the held-out split.
type ClassMetrics struct {
	Category  string  `json:"category"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ConfidenceDistribution summarizes held-out prediction confidence:
// fractions with max probability above 0.7, between 0.5 and 0.7, and at
// or below 0.5.
type ConfidenceDistribution struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// TrainingReport captures the trainer's evaluation of a fitted model.
// Degenerate statistics (e.g. an empty class in a fold) are surfaced in
// Warnings; they do not abort training.
type TrainingReport struct {
	Samples        int                    `json:"samples"`
	TestAccuracy   float64                `json:"test_accuracy"`
	CVScores       []float64              `json:"cv_scores"`
	CVMean         float64                `json:"cv_mean"`
	CVStd          float64                `json:"cv_std"`
	Confusion      [][]int                `json:"confusion_matrix"`
	PerClass       []ClassMetrics         `json:"per_class"`
	Confidence     ConfidenceDistribution `json:"confidence_distribution"`
	Warnings       []string               `json:"warnings,omitempty"`
	DurationMillis int64                  `json:"duration_ms"`
}

// IsFinite reports whether v is a usable numeric value.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
