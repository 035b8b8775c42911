package medical

import (
	"strings"
	"testing"

	"github.com/ali-rahimi/medibot/internal/store"
)

func TestComposePromptCarriesAllSections(t *testing.T) {
	prompt := ComposePrompt(
		"what helps with high blood pressure?",
		"Passage about hypertension.",
		"Recent medical discussion:\n- User: hi\n  Bot: hello",
	)

	for _, want := range []string{
		"You are MediBot",
		"DETECTED MEDICAL SPECIALTY: CARDIOLOGY",
		"Passage about hypertension.",
		"what helps with high blood pressure?",
		"Recent medical discussion:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestComposePromptEmptyMarkersNeverDropped(t *testing.T) {
	prompt := ComposePrompt("how do I renew a prescription?", "", "")
	if !strings.Contains(prompt, NoContextMarker) {
		t.Error("prompt missing explicit empty-context marker")
	}
	if !strings.Contains(prompt, noHistoryMarker) {
		t.Error("prompt missing explicit no-history marker")
	}
	if !strings.Contains(prompt, "GENERAL MEDICAL INQUIRY") {
		t.Error("prompt missing generic specialty block")
	}
}

func TestFormatHistoryTrimsToLastThreeExchanges(t *testing.T) {
	var turns []store.Turn
	for _, q := range []string{"one", "two", "three", "four", "five"} {
		turns = append(turns, store.Turn{UserMessage: q, BotResponse: "re " + q})
	}
	got := FormatHistory(turns)

	for _, dropped := range []string{"User: one", "User: two"} {
		if strings.Contains(got, dropped) {
			t.Errorf("history should have dropped %q", dropped)
		}
	}
	for _, kept := range []string{"User: three", "User: four", "User: five", "Bot: re five"} {
		if !strings.Contains(got, kept) {
			t.Errorf("history missing %q", kept)
		}
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	if got := FormatHistory(nil); got != noHistoryMarker {
		t.Fatalf("FormatHistory(nil) = %q", got)
	}
}

func TestJoinContext(t *testing.T) {
	docs := []RetrievedDocument{{Text: "alpha"}, {Text: "beta"}}
	got := JoinContext(docs)
	if got != "alpha"+ContextSeparator+"beta" {
		t.Fatalf("JoinContext = %q", got)
	}
	if JoinContext(nil) != NoContextMarker {
		t.Fatal("empty context must yield the explicit marker")
	}
}
