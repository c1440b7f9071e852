package report

import (
	"time"

	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/commkit"
	"github.com/tradedesk/tradecheck/internal/confirm"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
	"github.com/tradedesk/tradecheck/internal/diagnosis"
)

// Report is the full consistency report for one document set: one
// detection pass plus its diagnoses, open questions and draft messages.
type Report struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Result      crosscheck.Result     `json:"result"`
	Diagnoses   []diagnosis.Diagnosis `json:"diagnoses"`
	Questions   []confirm.Question    `json:"questions,omitempty"`
	Kits        []commkit.Kit         `json:"kits,omitempty"`
}

// Options carries presentation facts the engine does not own.
type Options struct {
	ProjectName string
	BrandName   string
}

// Assemble runs one full validation pass over the set. Everything except
// the timestamp and question ids is a pure function of the set.
func Assemble(set canonical.DocumentSet, opts Options) Report {
	result := crosscheck.Detect(set)
	diags := diagnosis.DiagnoseAll(result, set)

	// The findings of this pass are fresh copies; fill in the diagnosed
	// recommendation before they leave the engine.
	for i := range result.Findings {
		result.Findings[i].Recommended = diags[i].Resolution.Value
	}

	ctx := commkit.Context{
		ProjectName: opts.ProjectName,
		BrandName:   opts.BrandName,
		Versions:    Versions(set),
	}

	return Report{
		GeneratedAt: time.Now().UTC(),
		Result:      result,
		Diagnoses:   diags,
		Questions:   confirm.Generate(result, diags),
		Kits:        commkit.GenerateKits(result.Findings, diags, ctx),
	}
}

// Versions maps each present document kind to its current version.
func Versions(set canonical.DocumentSet) map[canonical.DocumentKind]int {
	out := make(map[canonical.DocumentKind]int, len(set))
	for kind, doc := range set {
		if doc != nil {
			out[kind] = doc.Version
		}
	}
	return out
}
