package commkit

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
	"github.com/tradedesk/tradecheck/internal/diagnosis"
	"github.com/tradedesk/tradecheck/internal/fixplan"
	"github.com/tradedesk/tradecheck/internal/l10n"
)

// MessageKind names one templated message of a kit.
type MessageKind string

const (
	KindCorrectionEmail     MessageKind = "counterparty_correction_email"
	KindConfirmRequestEmail MessageKind = "counterparty_confirm_request_email"
	KindChatMessage         MessageKind = "counterparty_chat_message"
	KindInternalNote        MessageKind = "internal_note"
	KindLogisticsNote       MessageKind = "logistics_note"
)

// Variant is one language rendering of a message. Chat messages and notes
// carry an empty subject.
type Variant struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// Message is one audience-directed message with all language variants.
// Both variants are rendered from the same structured change list, so they
// cannot disagree on facts.
type Message struct {
	Kind     MessageKind              `json:"kind"`
	Audience diagnosis.Audience       `json:"audience"`
	Variants map[language.Tag]Variant `json:"variants"`
}

// Kit is the ready-to-send message bundle for one finding.
type Kit struct {
	FindingID crosscheck.FindingID `json:"finding_id"`
	Messages  []Message            `json:"messages"`
}

// Context carries the deal facts the templates substitute.
type Context struct {
	ProjectName string
	BrandName   string
	Versions    map[canonical.DocumentKind]int
	Changes     []fixplan.FieldChange
}

// GenerateKit builds the messages the finding's audiences need. With
// applied changes the counterparty gets a correction email; without, a
// confirmation request. Every message is rendered in the source and
// secondary languages.
func GenerateKit(finding crosscheck.Finding, diag diagnosis.Diagnosis, ctx Context) Kit {
	kit := Kit{FindingID: finding.ID}

	for _, audience := range diag.Audiences {
		switch audience {
		case diagnosis.AudienceCounterparty:
			if len(ctx.Changes) > 0 {
				kit.Messages = append(kit.Messages, correctionEmail(finding, diag, ctx))
			} else {
				kit.Messages = append(kit.Messages, confirmRequestEmail(finding, diag, ctx))
			}
			kit.Messages = append(kit.Messages, chatMessage(finding, diag, ctx))
		case diagnosis.AudienceInternal:
			kit.Messages = append(kit.Messages, internalNote(finding, diag, ctx))
		case diagnosis.AudienceLogistics:
			kit.Messages = append(kit.Messages, logisticsNote(finding, diag, ctx))
		}
	}
	return kit
}

// GenerateKits builds one kit per finding, pairing findings with their
// diagnoses by id.
func GenerateKits(findings []crosscheck.Finding, diagnoses []diagnosis.Diagnosis, ctx Context) []Kit {
	diagByID := make(map[crosscheck.FindingID]diagnosis.Diagnosis, len(diagnoses))
	for _, d := range diagnoses {
		diagByID[d.FindingID] = d
	}
	kits := make([]Kit, 0, len(findings))
	for _, f := range findings {
		if d, ok := diagByID[f.ID]; ok {
			kits = append(kits, GenerateKit(f, d, ctx))
		}
	}
	return kits
}

func correctionEmail(finding crosscheck.Finding, diag diagnosis.Diagnosis, ctx Context) Message {
	return Message{
		Kind:     KindCorrectionEmail,
		Audience: diagnosis.AudienceCounterparty,
		Variants: map[language.Tag]Variant{
			l10n.Source: {
				Subject: fmt.Sprintf("[%s] Document correction — %s", ctx.ProjectName, finding.Title),
				Body: fmt.Sprintf(
					"Dear partner,\n\nDuring a consistency review of the %s documents we corrected the following:\n\n%s\n\nReason: %s\nCurrent document versions: %s\n\nPlease confirm the corrected values at your convenience.\n\nBest regards,\n%s",
					ctx.ProjectName, changeList(ctx.Changes, l10n.Source), diag.Resolution.Rationale,
					versionLine(ctx.Versions), ctx.BrandName),
			},
			l10n.Secondary: {
				Subject: fmt.Sprintf("[%s] 문서 정정 안내 — %s", ctx.ProjectName, finding.Title),
				Body: fmt.Sprintf(
					"안녕하세요,\n\n%s 거래 문서 정합성 점검 과정에서 아래 내용을 정정하였습니다:\n\n%s\n\n정정 근거: %s\n현재 문서 버전: %s\n\n정정된 값을 확인해 주시기 바랍니다.\n\n감사합니다.\n%s 드림",
					ctx.ProjectName, changeList(ctx.Changes, l10n.Secondary), diag.Resolution.Rationale,
					versionLine(ctx.Versions), ctx.BrandName),
			},
		},
	}
}

func confirmRequestEmail(finding crosscheck.Finding, diag diagnosis.Diagnosis, ctx Context) Message {
	return Message{
		Kind:     KindConfirmRequestEmail,
		Audience: diagnosis.AudienceCounterparty,
		Variants: map[language.Tag]Variant{
			l10n.Source: {
				Subject: fmt.Sprintf("[%s] Please confirm — %s", ctx.ProjectName, finding.Title),
				Body: fmt.Sprintf(
					"Dear partner,\n\nOur documents for %s do not agree on the following point:\n\n%s\n\nWe believe the correct value is \"%s\" (%s). If this is wrong, please tell us which value to use; otherwise we will align all documents accordingly.\n\nRisk if left open: %s\n\nBest regards,\n%s",
					ctx.ProjectName, observedList(finding.Observed), diag.Resolution.Value,
					diag.Resolution.Rationale, diag.Resolution.RiskIfIgnored.In(l10n.Source), ctx.BrandName),
			},
			l10n.Secondary: {
				Subject: fmt.Sprintf("[%s] 확인 요청 — %s", ctx.ProjectName, finding.Title),
				Body: fmt.Sprintf(
					"안녕하세요,\n\n%s 거래 문서 간 아래 항목이 일치하지 않습니다:\n\n%s\n\n저희는 \"%s\"가 올바른 값이라고 판단합니다(%s). 다른 값이 맞다면 알려주시고, 이견이 없으시면 모든 문서를 해당 값으로 통일하겠습니다.\n\n미해결 시 리스크: %s\n\n감사합니다.\n%s 드림",
					ctx.ProjectName, observedList(finding.Observed), diag.Resolution.Value,
					diag.Resolution.Rationale, diag.Resolution.RiskIfIgnored.In(l10n.Secondary), ctx.BrandName),
			},
		},
	}
}

func chatMessage(finding crosscheck.Finding, diag diagnosis.Diagnosis, ctx Context) Message {
	return Message{
		Kind:     KindChatMessage,
		Audience: diagnosis.AudienceCounterparty,
		Variants: map[language.Tag]Variant{
			l10n.Source: {
				Body: fmt.Sprintf("Quick check on %s: our documents show different values for %s (%s). We suggest \"%s\" — OK to align everything to that?",
					ctx.ProjectName, finding.FieldPath, observedInline(finding.Observed), diag.Resolution.Value),
			},
			l10n.Secondary: {
				Body: fmt.Sprintf("%s 건 간단 확인입니다. %s 값이 문서마다 다릅니다(%s). \"%s\"(으)로 통일해도 될까요?",
					ctx.ProjectName, finding.FieldPath, observedInline(finding.Observed), diag.Resolution.Value),
			},
		},
	}
}

func internalNote(finding crosscheck.Finding, diag diagnosis.Diagnosis, ctx Context) Message {
	topCause := diag.Causes[0]
	return Message{
		Kind:     KindInternalNote,
		Audience: diagnosis.AudienceInternal,
		Variants: map[language.Tag]Variant{
			l10n.Source: {
				Body: fmt.Sprintf("[%s] %s\nObserved: %s\nLikely cause: %s (p=%.2f)\nRecommendation: %s — %s\nRisk if ignored: %s",
					ctx.ProjectName, finding.Title, observedInline(finding.Observed),
					topCause.Label.In(l10n.Source), topCause.Probability,
					diag.Resolution.Value, diag.Resolution.Rationale,
					diag.Resolution.RiskIfIgnored.In(l10n.Source)),
			},
			l10n.Secondary: {
				Body: fmt.Sprintf("[%s] %s\n관측값: %s\n추정 원인: %s (p=%.2f)\n권고: %s — %s\n미해결 시 리스크: %s",
					ctx.ProjectName, finding.Title, observedInline(finding.Observed),
					topCause.Label.In(l10n.Secondary), topCause.Probability,
					diag.Resolution.Value, diag.Resolution.Rationale,
					diag.Resolution.RiskIfIgnored.In(l10n.Secondary)),
			},
		},
	}
}

func logisticsNote(finding crosscheck.Finding, diag diagnosis.Diagnosis, ctx Context) Message {
	body := func(tag language.Tag) string {
		if len(ctx.Changes) > 0 {
			if tag == l10n.Secondary {
				return fmt.Sprintf("%s 건 운송 관련 문서가 정정되었습니다:\n%s\n최신 버전(%s) 기준으로 부킹 정보를 갱신해 주세요.",
					ctx.ProjectName, changeList(ctx.Changes, tag), versionLine(ctx.Versions))
			}
			return fmt.Sprintf("Shipping-relevant documents for %s were corrected:\n%s\nPlease update the booking against the latest versions (%s).",
				ctx.ProjectName, changeList(ctx.Changes, tag), versionLine(ctx.Versions))
		}
		if tag == l10n.Secondary {
			return fmt.Sprintf("%s 건 문서 간 불일치가 확인되었습니다: %s. 확정 전까지 부킹을 보류해 주세요.",
				ctx.ProjectName, observedInline(finding.Observed))
		}
		return fmt.Sprintf("Documents for %s disagree: %s. Please hold the booking until this is settled.",
			ctx.ProjectName, observedInline(finding.Observed))
	}
	return Message{
		Kind:     KindLogisticsNote,
		Audience: diagnosis.AudienceLogistics,
		Variants: map[language.Tag]Variant{
			l10n.Source:    {Body: body(l10n.Source)},
			l10n.Secondary: {Body: body(l10n.Secondary)},
		},
	}
}

// changeList renders the structured change tuples; field names and values
// are shared verbatim between variants so the facts cannot diverge.
func changeList(changes []fixplan.FieldChange, tag language.Tag) string {
	lines := make([]string, len(changes))
	for i, c := range changes {
		if tag == l10n.Secondary {
			lines[i] = fmt.Sprintf("- %s (%s): \"%s\" → \"%s\"", c.Field, c.Doc, c.Old, c.New)
		} else {
			lines[i] = fmt.Sprintf("- %s in %s: \"%s\" → \"%s\"", c.Field, c.Doc, c.Old, c.New)
		}
	}
	return strings.Join(lines, "\n")
}

func observedList(observed []crosscheck.ObservedValue) string {
	lines := make([]string, len(observed))
	for i, o := range observed {
		lines[i] = fmt.Sprintf("- %s: %s", o.Doc, o.Value)
	}
	return strings.Join(lines, "\n")
}

func observedInline(observed []crosscheck.ObservedValue) string {
	parts := make([]string, len(observed))
	for i, o := range observed {
		parts[i] = fmt.Sprintf("%s: %s", o.Doc, o.Value)
	}
	return strings.Join(parts, "; ")
}

func versionLine(versions map[canonical.DocumentKind]int) string {
	var parts []string
	for _, kind := range canonical.AllKinds {
		if v, ok := versions[kind]; ok {
			parts = append(parts, fmt.Sprintf("%s v%d", kind, v))
		}
	}
	if len(parts) == 0 {
		return "n/a"
	}
	return strings.Join(parts, ", ")
}
