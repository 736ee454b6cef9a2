package data

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultAppliances(t *testing.T) {
	want := map[string][2]int{
		"Fan":    {60, 120},
		"Light":  {20, 40},
		"AC":     {1200, 1800},
		"Fridge": {100, 250},
		"Mixer":  {300, 600},
	}
	got := map[string][2]int{}
	for _, a := range DefaultAppliances() {
		if err := a.Validate(); err != nil {
			t.Errorf("default appliance invalid: %v", err)
		}
		got[a.Name] = [2]int{a.Min, a.Max}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("appliance table mismatch (-want +got):\n%s", diff)
	}

	// callers get their own copy
	a := DefaultAppliances()
	a[0].Max = 1
	if DefaultAppliances()[0].Max != 120 {
		t.Error("DefaultAppliances shares backing storage")
	}
}

func TestApplianceValidate(t *testing.T) {
	testCases := []struct {
		name      string
		appliance Appliance
		expectErr bool
	}{
		{"valid", Appliance{Name: "Kettle", Min: 1500, Max: 2000}, false},
		{"single point range", Appliance{Name: "Clock", Min: 2, Max: 2}, false},
		{"empty name", Appliance{Min: 1, Max: 2}, true},
		{"inverted range", Appliance{Name: "Oven", Min: 100, Max: 10}, true},
		{"negative min", Appliance{Name: "Solar", Min: -5, Max: 10}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.appliance.Validate()
			if (err != nil) != tc.expectErr {
				t.Errorf("Validate() error = %v, expectErr %v", err, tc.expectErr)
			}
		})
	}
}

func TestApplianceContains(t *testing.T) {
	a := Appliance{Name: "Light", Min: 20, Max: 40}
	for _, w := range []int{20, 30, 40} {
		if !a.Contains(w) {
			t.Errorf("Contains(%d) = false, want true", w)
		}
	}
	for _, w := range []int{19, 41} {
		if a.Contains(w) {
			t.Errorf("Contains(%d) = true, want false", w)
		}
	}
}

func TestEncodeFieldOrder(t *testing.T) {
	ev := Event{EventID: 0, PredictedAppliance: "Fan", DeltaPower: 87, Hour: 14, Confidence: 0.91}
	b, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"event_id":0,"predicted_appliance":"Fan","delta_power":87,"hour":14,"confidence":0.91}`
	if string(b) != want {
		t.Errorf("Encode() = %s, want %s", b, want)
	}
	if strings.Contains(string(b), "\n") {
		t.Error("encoded event spans multiple lines")
	}
}

func TestDecodeSpacedPayload(t *testing.T) {
	raw := []byte(`{"event_id": 3, "predicted_appliance": "AC", "delta_power": 1500, "hour": 7, "confidence": 0.9}`)
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Event{EventID: 3, PredictedAppliance: "AC", DeltaPower: 1500, Hour: 7, Confidence: 0.9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}

	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("Decode accepted garbage")
	}
}
