package agronomy

import (
	"testing"
	"time"
)

func TestStageForMonth(t *testing.T) {
	expected := map[time.Month]Stage{
		time.January:   StageVegetativeGrowth,
		time.February:  StageFlowering,
		time.March:     StageCormMultiplication,
		time.April:     StageCormMultiplication,
		time.May:       StageDormancyPreparation,
		time.June:      StageUnknown,
		time.July:      StageUnknown,
		time.August:    StageDormancy,
		time.September: StageDormancy,
		time.October:   StageDormancy,
		time.November:  StageGrowthStimulation,
		time.December:  StageVegetativeGrowth,
	}

	// Total over all twelve months
	for m := time.January; m <= time.December; m++ {
		got := StageForMonth(m)
		if got != expected[m] {
			t.Errorf("StageForMonth(%s) = %s, want %s", m, got, expected[m])
		}
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		label string
		want  Stage
	}{
		{"Dormancy", StageDormancy},
		{"dormancy", StageDormancy},
		{"VegetativeGrowth", StageVegetativeGrowth},
		{"Vegetative Growth", StageVegetativeGrowth},
		{"FLOWERING", StageFlowering},
		{"Corm Multiplication", StageCormMultiplication},
		{"GrowthStimulation", StageGrowthStimulation},
		{"Dormancy Preparation", StageDormancyPreparation},
		{"", StageUnknown},
		{"Harvest", StageUnknown},
	}

	for _, tt := range tests {
		if got := ParseStage(tt.label); got != tt.want {
			t.Errorf("ParseStage(%q) = %s, want %s", tt.label, got, tt.want)
		}
	}
}
