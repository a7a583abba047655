package usecase

import (
	"fmt"
	"strings"
)

// prompts.go holds the fixed instruction texts used by the diagnosis
// pipeline.

const (
	// SystemInstruction is sent with every completion call. It pins the
	// assistant to decision support: ask follow-ups, never conclude.
	SystemInstruction = "You are a clinical decision support AI assisting doctors. " +
		"You must ask follow-up questions before concluding. " +
		"Do not give final medical decisions."

	// Disclaimer accompanies every displayed diagnosis. The pipeline output
	// is decision support only, never a final medical decision.
	Disclaimer = "For clinical decision support only. Doctor confirmation required."
)

func diagnosisPrompt(historyText, labText string, conversation []string) string {
	return fmt.Sprintf(`Patient History:
%s

Lab Results:
%s

Conversation so far:
%s

Task:
Infer the MOST LIKELY diagnosis.
Do NOT prescribe medicine.
Be concise.`, historyText, labText, strings.Join(conversation, "\n"))
}

// followupPrompt embeds nothing but the stage-1 diagnosis text.
func followupPrompt(diagnosis string) string {
	return fmt.Sprintf(`Current diagnosis hypothesis:
%s

Task:
Ask 1-2 follow-up questions like a real doctor.
Do NOT conclude.`, diagnosis)
}
