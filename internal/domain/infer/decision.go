package infer

import "github.com/risklab/pulse/internal/domain/model"

// Reliability labels derived from prediction confidence.
const (
	ReliabilityHigh   = "High - Act on this prediction"
	ReliabilityMedium = "Medium - Monitor closely"
	ReliabilityLow    = "Low - Gather more data"
)

// Intervention priority labels.
const (
	PriorityImmediate = "Immediate"
	PriorityWeek      = "Within 1 week"
	PriorityMonth     = "Within 1 month"
	PriorityMonitor   = "Monitor"
)

type reliabilityRule struct {
	above float64
	label string
}

var reliabilityTable = []reliabilityRule{
	{above: 0.75, label: ReliabilityHigh},
	{above: 0.55, label: ReliabilityMedium},
}

// Reliability maps confidence to a qualitative trust label.
func Reliability(confidence float64) string {
	for _, r := range reliabilityTable {
		if confidence > r.above {
			return r.label
		}
	}
	return ReliabilityLow
}

type priorityRule struct {
	category model.RiskCategory
	above    float64 // confidence must exceed this; negative means any
	label    string
}

// priorityTable is evaluated top to bottom; the first matching rule wins.
// A Critical prediction with confidence at or below 0.6 matches no
// escalation rule and lands on Monitor. That fall-through is part of the
// decision table's contract; do not reorder or "fix" it here.
var priorityTable = []priorityRule{
	{category: model.Critical, above: 0.6, label: PriorityImmediate},
	{category: model.High, above: 0.55, label: PriorityWeek},
	{category: model.Medium, above: -1, label: PriorityMonth},
}

// Priority maps a predicted category and its confidence to an
// action-urgency label.
func Priority(category model.RiskCategory, confidence float64) string {
	for _, r := range priorityTable {
		if category == r.category && confidence > r.above {
			return r.label
		}
	}
	return PriorityMonitor
}
