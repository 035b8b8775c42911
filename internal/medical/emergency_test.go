package medical

import "testing"

func TestEmergencyDetectorMatchesPhrases(t *testing.T) {
	var d EmergencyDetector
	cases := []string{
		"I have chest pain and feel dizzy",
		"My father had a STROKE an hour ago",
		"experiencing Difficulty Breathing since morning",
		"I think this might be an overdose",
		"thoughts of suicide",
	}
	for _, msg := range cases {
		if !d.Evaluate(msg) {
			t.Errorf("expected emergency for %q", msg)
		}
	}
}

func TestEmergencyDetectorIgnoresRoutineQuestions(t *testing.T) {
	var d EmergencyDetector
	cases := []string{
		"I have a mild headache",
		"What are the symptoms of the flu?",
		"How much sleep do adults need?",
		"",
	}
	for _, msg := range cases {
		if d.Evaluate(msg) {
			t.Errorf("unexpected emergency for %q", msg)
		}
	}
}

func TestHasCriticalSymptoms(t *testing.T) {
	if !hasCriticalSymptoms("If you notice stroke symptoms, call emergency services.") {
		t.Fatal("expected critical-symptom hit on response text")
	}
	if hasCriticalSymptoms("Drink fluids and rest.") {
		t.Fatal("unexpected critical-symptom hit")
	}
}
