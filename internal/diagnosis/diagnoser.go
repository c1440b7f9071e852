package diagnosis

import (
	"math"
	"sort"

	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
	"github.com/tradedesk/tradecheck/internal/l10n"
)

// maxAdjustment bounds how far evidence flags may move a baseline
// probability, so the ranking stays stable and explainable.
const maxAdjustment = 0.10

// confirmationThreshold: below this top-cause probability the diagnosis is
// not trusted without a human decision.
const confirmationThreshold = 0.5

// Cause is one ranked hypothesis for why the documents disagree.
type Cause struct {
	ID          string    `json:"id"`
	Label       l10n.Text `json:"label"`
	Probability float64   `json:"probability"`
	Evidence    []string  `json:"evidence,omitempty"`
}

// Resolution is the recommended way out of a finding. Recompute is set for
// derived-value findings where the fix is arithmetic, not a source document.
type Resolution struct {
	SourceDoc     canonical.DocumentKind `json:"source_doc,omitempty"`
	Value         string                 `json:"value"`
	Recompute     bool                   `json:"recompute,omitempty"`
	Rationale     string                 `json:"rationale"`
	RiskIfIgnored l10n.Text              `json:"risk_if_ignored"`
}

// Diagnosis is the full causal analysis of one finding.
type Diagnosis struct {
	FindingID         crosscheck.FindingID `json:"finding_id"`
	FieldPath         string               `json:"field_path"`
	Causes            []Cause              `json:"causes"`
	Resolution        Resolution           `json:"resolution"`
	Audiences         []Audience           `json:"audiences"`
	NeedsConfirmation bool                 `json:"needs_confirmation"`
}

// Diagnose ranks the plausible causes of one finding and recommends a
// resolution via the source-of-truth priority table. Unknown finding ids
// fall back to a generic manual-review cause and the prefer-the-contract
// rule; they never fail the pass.
func Diagnose(finding crosscheck.Finding, set canonical.DocumentSet) Diagnosis {
	flags := evidenceFlags(finding, set)

	templates, ok := causeTemplates[finding.ID]
	if !ok {
		templates = genericCauses
	}

	causes := make([]Cause, 0, len(templates))
	for _, tpl := range templates {
		p, evidence := adjustedProbability(tpl, flags)
		causes = append(causes, Cause{
			ID:          tpl.ID,
			Label:       tpl.Label,
			Probability: p,
			Evidence:    evidence,
		})
	}
	// Descending probability; the stable sort keeps table order on ties.
	sort.SliceStable(causes, func(i, j int) bool {
		return causes[i].Probability > causes[j].Probability
	})

	audiences, ok := audiencesByFinding[finding.ID]
	if !ok {
		audiences = []Audience{AudienceInternal}
	}

	return Diagnosis{
		FindingID:         finding.ID,
		FieldPath:         finding.FieldPath,
		Causes:            causes,
		Resolution:        resolve(finding, set),
		Audiences:         audiences,
		NeedsConfirmation: causes[0].Probability < confirmationThreshold,
	}
}

// DiagnoseAll diagnoses every finding of a detection pass, in detection
// order.
func DiagnoseAll(result crosscheck.Result, set canonical.DocumentSet) []Diagnosis {
	out := make([]Diagnosis, 0, len(result.Findings))
	for _, f := range result.Findings {
		out = append(out, Diagnose(f, set))
	}
	return out
}

func adjustedProbability(tpl CauseTemplate, flags map[EvidenceFlag]bool) (float64, []string) {
	evidence := append([]string(nil), tpl.Evidence...)
	delta := 0.0
	for _, adj := range tpl.Adjust {
		if flags[adj.When] {
			delta += adj.Delta
			evidence = append(evidence, adj.Note)
		}
	}
	if delta > maxAdjustment {
		delta = maxAdjustment
	}
	if delta < -maxAdjustment {
		delta = -maxAdjustment
	}
	p := tpl.BaseProbability + delta
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return math.Round(p*100) / 100, evidence
}

func evidenceFlags(finding crosscheck.Finding, set canonical.DocumentSet) map[EvidenceFlag]bool {
	flags := map[EvidenceFlag]bool{
		FlagContractPresent:    set.Has(canonical.KindContract),
		FlagContractAbsent:     !set.Has(canonical.KindContract),
		FlagPackingListPresent: set.Has(canonical.KindPackingList),
		FlagAllDocsPresent:     len(set.Kinds()) == len(canonical.AllKinds),
	}
	distinct := make(map[string]struct{}, len(finding.Observed))
	for _, o := range finding.Observed {
		distinct[o.Value] = struct{}{}
	}
	flags[FlagManyValues] = len(distinct) > 2
	return flags
}

// resolve walks the priority list and picks the first document that both
// exists in the set and observed a value for the disputed field.
func resolve(finding crosscheck.Finding, set canonical.DocumentSet) Resolution {
	rule, ok := sourcePriority[finding.ID]
	if !ok {
		rule = genericPriority
	}
	risk, ok := riskByFinding[finding.ID]
	if !ok {
		risk = genericRisk
	}

	if rule.Order == nil {
		return Resolution{
			Value:         "recompute",
			Recompute:     true,
			Rationale:     rule.Rationale,
			RiskIfIgnored: risk,
		}
	}

	for _, kind := range rule.Order {
		if !set.Has(kind) {
			continue
		}
		if v, ok := observedValue(finding, kind); ok {
			return Resolution{
				SourceDoc:     kind,
				Value:         v,
				Rationale:     rule.Rationale,
				RiskIfIgnored: risk,
			}
		}
	}

	// None of the prioritized documents observed the field; fall back to
	// the first observation so the recommendation is never empty.
	if len(finding.Observed) > 0 {
		o := finding.Observed[0]
		return Resolution{
			SourceDoc:     o.Doc,
			Value:         o.Value,
			Rationale:     rule.Rationale,
			RiskIfIgnored: risk,
		}
	}
	return Resolution{Rationale: rule.Rationale, RiskIfIgnored: risk}
}

func observedValue(finding crosscheck.Finding, kind canonical.DocumentKind) (string, bool) {
	for _, o := range finding.Observed {
		if o.Doc == kind {
			return o.Value, true
		}
	}
	return "", false
}
