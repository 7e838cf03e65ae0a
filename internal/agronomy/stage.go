package agronomy

import (
	"strings"
	"time"
)

// Stage is a phase of the saffron cultivation calendar. Rules are gated on
// the stage: during dormancy the crop receives no inputs or irrigation, so
// out-of-range soil readings are expected and non-actionable.
type Stage string

const (
	StageDormancy            Stage = "Dormancy"
	StageGrowthStimulation   Stage = "GrowthStimulation"
	StageVegetativeGrowth    Stage = "VegetativeGrowth"
	StageFlowering           Stage = "Flowering"
	StageCormMultiplication  Stage = "CormMultiplication"
	StageDormancyPreparation Stage = "DormancyPreparation"
	StageUnknown             Stage = "Unknown"
)

// StageForMonth derives the cultivation stage from the calendar month.
// Total over all twelve months; June and July map to Unknown.
func StageForMonth(m time.Month) Stage {
	switch m {
	case time.August, time.September, time.October:
		return StageDormancy
	case time.November:
		return StageGrowthStimulation
	case time.December, time.January:
		return StageVegetativeGrowth
	case time.February:
		return StageFlowering
	case time.March, time.April:
		return StageCormMultiplication
	case time.May:
		return StageDormancyPreparation
	default:
		return StageUnknown
	}
}

// ParseStage maps a stage label to a Stage. Labels are matched
// case-insensitively and ignoring spaces, so "Vegetative Growth" from a CSV
// export resolves to StageVegetativeGrowth. Unrecognized labels resolve to
// StageUnknown.
func ParseStage(label string) Stage {
	normalized := strings.ToLower(strings.ReplaceAll(label, " ", ""))
	stages := []Stage{
		StageDormancy,
		StageGrowthStimulation,
		StageVegetativeGrowth,
		StageFlowering,
		StageCormMultiplication,
		StageDormancyPreparation,
	}
	for _, s := range stages {
		if normalized == strings.ToLower(string(s)) {
			return s
		}
	}
	return StageUnknown
}
