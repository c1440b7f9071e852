package confirm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
	"github.com/tradedesk/tradecheck/internal/diagnosis"
)

// MaxQuestions caps how many confirmation questions one report may carry.
const MaxQuestions = 5

// multiCauseThreshold: a finding with several competing causes and a top
// probability below this is worth a human decision even when not blocking.
const multiCauseThreshold = 0.7

// ErrUnknownOption is returned when an answer names a value the question
// never offered.
var ErrUnknownOption = errors.New("answer does not match any option")

// Option is one selectable value, tied to the document that observed it.
type Option struct {
	Label       string                 `json:"label"`
	Value       string                 `json:"value"`
	Source      canonical.DocumentKind `json:"source"`
	Recommended bool                   `json:"recommended"`
}

// Question asks a human to pick the correct value for one finding.
type Question struct {
	ID        string               `json:"id"`
	FindingID crosscheck.FindingID `json:"finding_id"`
	FieldPath string               `json:"field_path"`
	Severity  crosscheck.Severity  `json:"severity"`
	Prompt    string               `json:"prompt"`
	Options   []Option             `json:"options"`
}

// Answer records the human's choice, traceable to exactly one finding and
// one canonical field path so the fix applier can target the mutation.
type Answer struct {
	QuestionID string                 `json:"question_id"`
	FindingID  crosscheck.FindingID   `json:"finding_id"`
	FieldPath  string                 `json:"field_path"`
	Value      string                 `json:"value"`
	Source     canonical.DocumentKind `json:"source"`
}

// Generate builds confirmation questions for the findings that warrant one:
// blocking severity, a diagnosis flagged for confirmation, or several
// competing causes with a weak leader. Questions are ranked by severity,
// then by the smallest gap between the top two cause probabilities, and
// capped at MaxQuestions.
func Generate(result crosscheck.Result, diagnoses []diagnosis.Diagnosis) []Question {
	diagByID := make(map[crosscheck.FindingID]diagnosis.Diagnosis, len(diagnoses))
	for _, d := range diagnoses {
		diagByID[d.FindingID] = d
	}

	type candidate struct {
		question Question
		gap      float64
	}
	var candidates []candidate

	for _, f := range result.Findings {
		diag, ok := diagByID[f.ID]
		if !ok {
			continue
		}
		if !wantsQuestion(f, diag) {
			continue
		}
		options := buildOptions(f, diag)
		if len(options) < 2 {
			// Nothing to choose between.
			continue
		}
		candidates = append(candidates, candidate{
			question: Question{
				ID:        uuid.New().String(),
				FindingID: f.ID,
				FieldPath: f.FieldPath,
				Severity:  f.Severity,
				Prompt:    fmt.Sprintf("%s — which value should every document use?", f.Title),
				Options:   options,
			},
			gap: confidenceGap(diag),
		})
	}

	// Most severe first, then the most uncertain diagnosis; stable keeps
	// detection order on ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		si := crosscheck.SeverityOrder(candidates[i].question.Severity)
		sj := crosscheck.SeverityOrder(candidates[j].question.Severity)
		if si != sj {
			return si > sj
		}
		return candidates[i].gap < candidates[j].gap
	})

	if len(candidates) > MaxQuestions {
		candidates = candidates[:MaxQuestions]
	}
	questions := make([]Question, len(candidates))
	for i, c := range candidates {
		questions[i] = c.question
	}
	return questions
}

func wantsQuestion(f crosscheck.Finding, diag diagnosis.Diagnosis) bool {
	if f.Severity == crosscheck.SeverityBlocking {
		return true
	}
	if diag.NeedsConfirmation {
		return true
	}
	return len(diag.Causes) > 1 && diag.Causes[0].Probability < multiCauseThreshold
}

// buildOptions deduplicates the observed values; the first document to
// observe a value names the option's source.
func buildOptions(f crosscheck.Finding, diag diagnosis.Diagnosis) []Option {
	seen := make(map[string]struct{}, len(f.Observed))
	options := make([]Option, 0, len(f.Observed))
	for _, o := range f.Observed {
		if _, dup := seen[o.Value]; dup {
			continue
		}
		seen[o.Value] = struct{}{}
		options = append(options, Option{
			Label:       fmt.Sprintf("%s (from %s)", o.Value, o.Doc),
			Value:       o.Value,
			Source:      o.Doc,
			Recommended: o.Doc == diag.Resolution.SourceDoc,
		})
	}
	return options
}

func confidenceGap(diag diagnosis.Diagnosis) float64 {
	if len(diag.Causes) < 2 {
		return diag.Causes[0].Probability
	}
	return diag.Causes[0].Probability - diag.Causes[1].Probability
}

// Select finds the question with the given id.
func Select(questions []Question, id string) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Answer validates a chosen value against the question's options and
// records the choice.
func (q Question) Answer(value string) (Answer, error) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return Answer{
				QuestionID: q.ID,
				FindingID:  q.FindingID,
				FieldPath:  q.FieldPath,
				Value:      opt.Value,
				Source:     opt.Source,
			}, nil
		}
	}
	return Answer{}, ErrUnknownOption
}
