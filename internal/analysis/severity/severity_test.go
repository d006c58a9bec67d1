package severity

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score int
		tier  Tier
		label string
	}{
		{0, Low, "Monitor symptoms"},
		{35, Low, "Monitor symptoms"},
		{39, Low, "Monitor symptoms"},
		{40, Medium, "Consider seeing a doctor"},
		{69, Medium, "Consider seeing a doctor"},
		{70, High, "Seek immediate medical attention"},
		{85, High, "Seek immediate medical attention"},
		{100, High, "Seek immediate medical attention"},
	}

	for _, tc := range cases {
		got := Classify(tc.score)
		if got.Tier != tc.tier || got.Label != tc.label {
			t.Fatalf("Classify(%d) = %s/%q, want %s/%q", tc.score, got.Tier, got.Label, tc.tier, tc.label)
		}
	}
}

func TestClassifyClampsOutOfRange(t *testing.T) {
	if got := Classify(-15); got.Score != 0 || got.Tier != Low {
		t.Fatalf("expected clamp to 0/Low, got %+v", got)
	}
	if got := Classify(250); got.Score != 100 || got.Tier != High {
		t.Fatalf("expected clamp to 100/High, got %+v", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for score := -5; score <= 105; score++ {
		if Classify(score) != Classify(score) {
			t.Fatalf("Classify(%d) returned different results", score)
		}
	}
}

func TestDisplay(t *testing.T) {
	want := "Severity: 85/100 - High - Seek immediate medical attention"
	if got := Classify(85).Display(); got != want {
		t.Fatalf("unexpected display: got %q want %q", got, want)
	}
	if got := Classify(45).Class(); got != "severity-medium" {
		t.Fatalf("unexpected class: %s", got)
	}
}
