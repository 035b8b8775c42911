package medical

import "strings"

// emergencyPhrases are matched case-insensitively as substrings of the
// incoming message. Any hit short-circuits the whole pipeline.
var emergencyPhrases = []string{
	"chest pain", "heart attack", "stroke", "seizure", "difficulty breathing",
	"unconscious", "severe bleeding", "overdose", "poisoning",
	"severe allergic reaction", "anaphylaxis", "suicide", "self-harm",
	"severe abdominal pain", "head injury", "broken bone", "severe burn",
	"choking", "severe headache", "high fever", "loss of consciousness",
	"severe vomiting", "severe diarrhea", "severe pain",
}

// criticalSymptoms is a narrower list reused by the response enhancer to
// pick the strong disclaimer when generated text mentions them.
var criticalSymptoms = []string{
	"chest pain", "difficulty breathing", "severe headache",
	"loss of consciousness", "severe bleeding", "stroke symptoms",
	"heart attack", "anaphylaxis", "severe abdominal pain", "high fever",
	"seizure", "overdose",
}

// EmergencyDetector is a stateless keyword classifier. The zero value is
// ready to use.
type EmergencyDetector struct{}

// Evaluate reports whether text contains an emergency phrase or a critical
// symptom term.
func (EmergencyDetector) Evaluate(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range emergencyPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return hasCriticalSymptoms(lower)
}

func hasCriticalSymptoms(text string) bool {
	lower := strings.ToLower(text)
	for _, symptom := range criticalSymptoms {
		if strings.Contains(lower, symptom) {
			return true
		}
	}
	return false
}

// EmergencyResponse is the fixed, non-personalized guidance returned on the
// emergency short-circuit path.
const EmergencyResponse = `🚨 **MEDICAL EMERGENCY DETECTED** 🚨

**IMMEDIATE ACTION REQUIRED:**

If you are experiencing a medical emergency, please take these steps immediately:

1. **Call Emergency Services**:
   - US: 911
   - UK: 999
   - EU: 112
   - Your local emergency number

2. **Go to the nearest Emergency Room** if you can safely do so

3. **Call your healthcare provider** if they have an emergency line

4. **If possible, have someone stay with you** until help arrives

**IMPORTANT REMINDERS:**
- This AI assistant cannot provide emergency medical care
- Time is critical in medical emergencies
- Professional medical intervention is essential
- Do not delay seeking help to wait for AI responses

Stay safe and seek immediate professional medical assistance.`
