package medical

import (
	"fmt"
	"strings"
)

const (
	confidenceHigh   = 0.8
	confidenceMedium = 0.5
)

const (
	disclaimerEmergency = `⚠️ **IMPORTANT MEDICAL DISCLAIMER:**
This response is for informational purposes only and should NOT replace emergency medical care.
If you're experiencing these symptoms, please seek immediate medical attention.`

	disclaimerLowConfidence = `ℹ️ **MEDICAL DISCLAIMER:**
This response has lower confidence due to limited context. Please consult with a healthcare
professional for accurate diagnosis and treatment recommendations.`

	disclaimerGeneral = `ℹ️ **MEDICAL DISCLAIMER:**
This information is for educational purposes only. Always consult with qualified healthcare
professionals for medical advice, diagnosis, and treatment decisions.`
)

// EnhanceResponse appends the confidence label, numbered source references,
// and a severity-selected disclaimer to the raw generated text. The
// disclaimer choice re-runs the critical-symptom match against the response
// text itself; this is independent of the emergency short-circuit on input.
func EnhanceResponse(raw string, confidence float64, references []string) string {
	var b strings.Builder
	b.WriteString(raw)

	b.WriteString("\n\n**Confidence Level**: ")
	switch {
	case confidence >= confidenceHigh:
		b.WriteString("High (Strong medical context available)")
	case confidence >= confidenceMedium:
		b.WriteString("Medium (Moderate medical context available)")
	default:
		b.WriteString("Low (Limited medical context available)")
	}

	b.WriteString("\n\n")
	b.WriteString(formatReferences(references))

	b.WriteString("\n\n")
	switch {
	case hasCriticalSymptoms(raw):
		b.WriteString(disclaimerEmergency)
	case confidence < confidenceMedium:
		b.WriteString(disclaimerLowConfidence)
	default:
		b.WriteString(disclaimerGeneral)
	}
	return b.String()
}

func formatReferences(references []string) string {
	if len(references) == 0 {
		return "No specific medical references available."
	}
	var b strings.Builder
	b.WriteString("**Medical References:**\n")
	for i, ref := range references {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, ref)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SourceReferences extracts the distinct source labels of retrieved
// documents, preserving first-seen order.
func SourceReferences(docs []RetrievedDocument) []string {
	seen := make(map[string]struct{}, len(docs))
	var out []string
	for _, d := range docs {
		if _, ok := seen[d.Source]; ok {
			continue
		}
		seen[d.Source] = struct{}{}
		out = append(out, d.Source)
	}
	return out
}
