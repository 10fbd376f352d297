package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/llm"
)

// Classifier decides how one claim relates to its cited evidence. The note
// explains the verdict in one short sentence.
type Classifier interface {
	Classify(ctx context.Context, claim string, evidence []entity.RefItem) (entity.Verdict, string, error)
}

// LLMClassifier asks a model whether the evidence entails the claim.
type LLMClassifier struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

var _ Classifier = &LLMClassifier{}

func NewLLMClassifier(provider llm.LLMProvider, logger *log.Logger) *LLMClassifier {
	return &LLMClassifier{
		provider: provider,
		logger:   logger,
	}
}

func (c *LLMClassifier) Classify(ctx context.Context, claim string, evidence []entity.RefItem) (entity.Verdict, string, error) {
	prompt := buildClassifyPrompt(claim, evidence)

	response, err := llm.GenerateWithRetry(ctx, c.provider, prompt, 2,
		llm.WithTemperature(0.0), llm.WithJSONMode())
	if err != nil {
		return entity.VerdictUncertain, "", err
	}

	verdict, note := parseVerdict(response)
	return verdict, note, nil
}

func buildClassifyPrompt(claim string, evidence []entity.RefItem) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a fact checker. Decide whether the evidence supports the claim.\n")
	prompt.WriteString("Judge ONLY from the evidence below. Outside knowledge does not count.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<claim>\n")
	prompt.WriteString(claim)
	prompt.WriteString("\n</claim>\n\n")

	prompt.WriteString("<evidence>\n")
	for _, item := range evidence {
		prompt.WriteString(fmt.Sprintf("--- [%s] %s (%s) ---\n", item.RefId, item.Title, item.Source))
		prompt.WriteString(item.Excerpt)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</evidence>\n\n")

	prompt.WriteString("<verdict_definitions>\n")
	prompt.WriteString("verified: the evidence directly states or clearly entails the claim\n")
	prompt.WriteString("uncertain: the evidence is related but does not establish the claim\n")
	prompt.WriteString("conflict: the evidence contradicts the claim\n")
	prompt.WriteString("</verdict_definitions>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"verdict\": \"verified|uncertain|conflict\", \"note\": \"one-sentence justification\"}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseVerdict(response string) (entity.Verdict, string) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx <= startIdx {
		return entity.VerdictUncertain, "classifier returned no JSON"
	}

	var parsed struct {
		Verdict string `json:"verdict"`
		Note    string `json:"note"`
	}
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &parsed); err != nil {
		return entity.VerdictUncertain, "classifier returned malformed JSON"
	}

	switch entity.Verdict(strings.ToLower(strings.TrimSpace(parsed.Verdict))) {
	case entity.VerdictVerified:
		return entity.VerdictVerified, parsed.Note
	case entity.VerdictConflict:
		return entity.VerdictConflict, parsed.Note
	case entity.VerdictUncertain:
		return entity.VerdictUncertain, parsed.Note
	default:
		return entity.VerdictUncertain, "classifier returned an unrecognized verdict"
	}
}

// LexicalClassifier is the fallback when no classifier model is configured.
// It measures content-word overlap between claim and evidence and flags
// negation mismatches as conflicts. Crude, but it never calls out.
type LexicalClassifier struct{}

var _ Classifier = &LexicalClassifier{}

func NewLexicalClassifier() *LexicalClassifier {
	return &LexicalClassifier{}
}

func (c *LexicalClassifier) Classify(_ context.Context, claim string, evidence []entity.RefItem) (entity.Verdict, string, error) {
	tokens := contentTokens(claim)
	if len(tokens) == 0 {
		return entity.VerdictUncertain, "claim has no content words", nil
	}

	var corpus strings.Builder
	for _, item := range evidence {
		corpus.WriteString(strings.ToLower(item.Excerpt))
		corpus.WriteString(" ")
	}
	evidenceText := corpus.String()

	matched := 0
	for _, token := range tokens {
		if strings.Contains(evidenceText, token) {
			matched++
		}
	}
	coverage := float64(matched) / float64(len(tokens))

	switch {
	case coverage >= 0.65:
		if hasNegation(strings.ToLower(claim)) != hasNegation(evidenceText) {
			return entity.VerdictConflict, "high overlap but negation mismatch", nil
		}
		return entity.VerdictVerified, fmt.Sprintf("high lexical overlap (%d/%d content words)", matched, len(tokens)), nil
	case coverage >= 0.35:
		return entity.VerdictUncertain, fmt.Sprintf("partial lexical overlap (%d/%d content words)", matched, len(tokens)), nil
	default:
		return entity.VerdictUncertain, fmt.Sprintf("low lexical overlap (%d/%d content words)", matched, len(tokens)), nil
	}
}

func contentTokens(claim string) []string {
	fields := strings.FieldsFunc(strings.ToLower(claim), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-'
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 4 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

var negationMarkers = []string{" not ", " no ", " never ", " cannot ", "n't ", " fails to ", " without "}

func hasNegation(text string) bool {
	for _, marker := range negationMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
