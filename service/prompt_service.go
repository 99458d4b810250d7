package service

import (
	"fmt"
	"strings"

	"github.com/juridia/legal-assistant-be/types"
)

const systemFraming = "Tu es un assistant juridique spécialisé dans l'accompagnement des Junior-Entreprises. " +
	"Réponds en français, de manière claire et précise. " +
	"Lorsque des extraits de documents te sont fournis, appuie ta réponse dessus et cite leurs sources."

const noEvidenceInstruction = "Aucun extrait de document pertinent n'a été trouvé pour cette question. " +
	"Réponds à partir de tes connaissances générales et précise-le dans ta réponse."

// PromptService turns evidence and history into a bounded instruction for the
// model. When the whole thing would overflow, history is trimmed before
// evidence.
type PromptService struct {
	maxChars     int // upper bound on the assembled prompt, in characters
	historyTurns int // most recent N exchanges kept
}

func NewPromptService(maxChars, historyTurns int) *PromptService {
	if maxChars <= 0 {
		maxChars = 12000
	}
	if historyTurns <= 0 {
		historyTurns = 5
	}
	return &PromptService{
		maxChars:     maxChars,
		historyTurns: historyTurns,
	}
}

// Assemble builds the message sequence: system framing with the evidence
// block, a bounded tail of prior turns, then the user query.
func (s *PromptService) Assemble(query string, evidence []types.EvidenceItem, history []types.Message) []types.Message {
	system := systemFraming + "\n\n" + s.evidenceBlock(evidence)

	tail := history
	if max := s.historyTurns * 2; len(tail) > max {
		tail = tail[len(tail)-max:]
	}

	// Drop oldest history first when the budget overflows; evidence survives.
	fixed := len(system) + len(query)
	for len(tail) > 0 && fixed+historyLen(tail) > s.maxChars {
		tail = tail[1:]
	}

	messages := make([]types.Message, 0, len(tail)+2)
	messages = append(messages, types.Message{Role: types.RoleSystem, Content: system})
	messages = append(messages, tail...)
	messages = append(messages, types.Message{Role: types.RoleUser, Content: query})
	return messages
}

func (s *PromptService) evidenceBlock(evidence []types.EvidenceItem) string {
	if len(evidence) == 0 {
		return noEvidenceInstruction
	}
	var b strings.Builder
	b.WriteString("Contexte juridique pertinent:\n")
	for i, item := range evidence {
		if item.Page > 0 {
			fmt.Fprintf(&b, "%d. %s (Source: %s, page %d)\n", i+1, item.Content, item.Source, item.Page)
		} else {
			fmt.Fprintf(&b, "%d. %s (Source: %s)\n", i+1, item.Content, item.Source)
		}
	}
	return b.String()
}

func historyLen(messages []types.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total
}
