package agronomy

import (
	"strings"
	"testing"
)

func TestRange_Contains(t *testing.T) {
	r := Range{Min: 6.0, Max: 8.0}

	tests := []struct {
		value float64
		want  bool
	}{
		{6.0, true},  // closed on the low side
		{8.0, true},  // closed on the high side
		{7.0, true},
		{5.99, false},
		{8.01, false},
		{-3.0, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.value); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestRange_Validate(t *testing.T) {
	if err := (Range{Min: 1, Max: 2}).Validate("x"); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if err := (Range{Min: 2, Max: 2}).Validate("x"); err != nil {
		t.Errorf("point range rejected: %v", err)
	}

	err := (Range{Min: 3, Max: 2}).Validate("nitrogen")
	if err == nil {
		t.Fatal("inverted range accepted")
	}
	if !strings.Contains(err.Error(), "nitrogen") {
		t.Errorf("error %q does not name the parameter", err)
	}
}

func TestThresholds_ApplyDefaults(t *testing.T) {
	var th Thresholds
	th.PH = Range{Min: 5.5, Max: 8.0} // variant bound stays
	th.ApplyDefaults()

	if th.PH.Min != 5.5 {
		t.Errorf("configured pH range overwritten: %+v", th.PH)
	}
	def := DefaultThresholds()
	if th.Nitrogen != def.Nitrogen || th.SoilHumidity != def.SoilHumidity {
		t.Errorf("unconfigured ranges not defaulted: %+v", th)
	}
}

func TestThresholds_Validate(t *testing.T) {
	th := DefaultThresholds()
	if err := th.Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}

	th.SoilTemperature = Range{Min: 25, Max: 18}
	err := th.Validate()
	if err == nil {
		t.Fatal("inverted soil_temperature range accepted")
	}
	if !strings.Contains(err.Error(), "soil_temperature") {
		t.Errorf("error %q does not name the parameter", err)
	}
}
