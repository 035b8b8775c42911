package medical

import "strings"

// fallbackKind tags one canned-response variant of the degraded-mode
// responder used when retrieval or generation is unavailable.
type fallbackKind int

const (
	fallbackGreeting fallbackKind = iota
	fallbackPain
	fallbackFever
	fallbackGeneric
)

var fallbackRules = []struct {
	kind     fallbackKind
	keywords []string
}{
	{fallbackGreeting, []string{"hello", "hi"}},
	{fallbackPain, []string{"pain", "hurt"}},
	{fallbackFever, []string{"fever", "temperature"}},
}

var fallbackResponses = map[fallbackKind]string{
	fallbackGreeting: `Hello! I'm your medical AI assistant. I'm currently running in basic mode. How can I help you with your health questions today?

⚠️ **Medical Disclaimer**: This is for informational purposes only. Please consult with healthcare professionals for medical advice.`,

	fallbackPain: `I understand you're experiencing pain. While I can provide general information, it's important to consult with a healthcare professional for proper evaluation and treatment.

**General advice for pain management:**
- Rest the affected area
- Apply ice for acute injuries
- Consider over-the-counter pain relievers as directed
- Seek medical attention if pain is severe or persistent

⚠️ **Please consult a healthcare provider for proper diagnosis and treatment.**`,

	fallbackFever: `Fever can be a sign of various conditions. Here's some general information:

**When to seek medical attention:**
- Temperature above 103°F (39.4°C)
- Fever lasting more than 3 days
- Severe symptoms like difficulty breathing
- Signs of dehydration

**General care:**
- Stay hydrated
- Rest
- Monitor temperature regularly

⚠️ **Always consult healthcare professionals for persistent or high fevers.**`,

	fallbackGeneric: `Thank you for your medical question. I'm currently operating in basic mode due to technical limitations.

For reliable medical information, I recommend:
- Consulting with your healthcare provider
- Visiting reputable medical websites like Mayo Clinic or WebMD
- Calling your doctor's office for advice
- Seeking emergency care if symptoms are severe

⚠️ **Medical Disclaimer**: This response is for informational purposes only and should not replace professional medical advice, diagnosis, or treatment.`,
}

// FallbackResponse picks the canned medical-safety text matching the
// message. Deterministic and non-generative: this is the graceful
// degradation path when retrieval or the LLM is down.
func FallbackResponse(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range fallbackRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return fallbackResponses[rule.kind]
			}
		}
	}
	return fallbackResponses[fallbackGeneric]
}
