package medical

import (
	"fmt"
	"strings"

	"github.com/ali-rahimi/medibot/internal/store"
)

// Explicit placeholders: generation depends on these markers to avoid
// hallucinating context or conversational continuity, so composition must
// never drop them silently.
const (
	NoContextMarker = "No relevant medical information found in the knowledge base."
	noHistoryMarker = "No previous medical conversation."

	// ContextSeparator joins retrieved document texts into the context
	// block.
	ContextSeparator = "\n\n---\n\n"
)

const systemPrompt = `You are MediBot, an advanced medical AI assistant designed to provide accurate, evidence-based medical information.

**CORE PRINCIPLES:**
1. Patient Safety First - Always prioritize user safety in responses
2. Evidence-Based Medicine - Base responses on provided medical literature
3. Clear Communication - Use accessible language while maintaining accuracy
4. Ethical Practice - Maintain professional medical ethics and boundaries

**RESPONSE GUIDELINES:**
1. You are NOT a replacement for professional medical advice, diagnosis, or treatment
2. Always recommend consulting healthcare professionals for serious concerns
3. Provide information based ONLY on the medical context provided
4. If information is not available in the context, clearly state this limitation
5. Use clear, accessible language while maintaining medical accuracy
6. Include confidence level in your responses when appropriate
7. Cite relevant sections from the provided medical literature when possible
8. Consider chat history for continuity but prioritize current medical context

**RESPONSE STRUCTURE:**
1. **Direct Answer**: Begin with a clear, direct response to the question
2. **Medical Explanation**: Provide detailed explanation with medical reasoning
3. **Relevant Information**: Include symptoms, causes, treatments from context
4. **Safety Information**: Highlight any safety considerations or red flags
5. **Professional Guidance**: Recommend appropriate healthcare consultation
6. **Confidence Rating**: Rate your confidence (High/Medium/Low) based on context quality

**SAFETY PROTOCOLS:**
- For emergency symptoms, immediately advise seeking emergency medical care
- For drug interactions or dosage questions, emphasize consulting pharmacists/doctors
- For mental health concerns, provide crisis resources when appropriate
- Never provide specific dosage recommendations without explicit medical context
- Always include appropriate medical disclaimers`

const genericInquiryBlock = "**GENERAL MEDICAL INQUIRY**\nProvide comprehensive medical information covering all relevant aspects."

// specialtyBlock renders the focus hint for a detected specialty, or the
// generic-inquiry block when none matched.
func specialtyBlock(question string) string {
	sp, ok := ClassifySpecialty(question)
	if !ok {
		return genericInquiryBlock
	}
	return fmt.Sprintf(`**DETECTED MEDICAL SPECIALTY: %s**
Focus on: %s

Please provide specialized information relevant to this medical field while maintaining
general medical safety guidelines.`, strings.ToUpper(sp.Name), sp.Focus)
}

// ComposePrompt builds the full generation prompt: system directive,
// specialty focus, retrieved context, trimmed history, and the question.
// Empty context or history must already carry their explicit markers.
func ComposePrompt(question, context, chatHistory string) string {
	if context == "" {
		context = NoContextMarker
	}
	if chatHistory == "" {
		chatHistory = noHistoryMarker
	}
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString(specialtyBlock(question))
	b.WriteString("\n\n**MEDICAL KNOWLEDGE BASE CONTEXT:**\n")
	b.WriteString(context)
	b.WriteString("\n\n**PATIENT QUESTION:**\n")
	b.WriteString(question)
	b.WriteString("\n\n**PREVIOUS CONVERSATION CONTEXT:**\n")
	b.WriteString(chatHistory)
	b.WriteString(`

**INSTRUCTIONS:**
Please provide a comprehensive medical response following the established guidelines.
If the question relates to previous conversation, reference the chat history appropriately.
Always prioritize patient safety and include appropriate medical disclaimers.
Structure your response clearly and include a confidence rating based on the available context.`)
	return b.String()
}

// historyWindow bounds the prompt to the last 3 user/bot exchanges.
const historyWindow = 3

// FormatHistory renders the trailing turns as alternating User/Bot lines,
// or the explicit no-history marker for a fresh session.
func FormatHistory(turns []store.Turn) string {
	if len(turns) == 0 {
		return noHistoryMarker
	}
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}
	var b strings.Builder
	b.WriteString("Recent medical discussion:\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "- User: %s\n  Bot: %s\n", t.UserMessage, t.BotResponse)
	}
	return strings.TrimRight(b.String(), "\n")
}

// JoinContext concatenates retrieved document texts with a visible
// separator, or returns the explicit empty-context marker.
func JoinContext(docs []RetrievedDocument) string {
	if len(docs) == 0 {
		return NoContextMarker
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return strings.Join(texts, ContextSeparator)
}
