package diagnosis

import (
	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
	"github.com/tradedesk/tradecheck/internal/l10n"
)

// Audience is a party that must hear about a finding or its fix.
type Audience string

const (
	AudienceCounterparty Audience = "counterparty"
	AudienceInternal     Audience = "internal"
	AudienceLogistics    Audience = "logistics"
)

// EvidenceFlag is a concrete, deterministic signal computed from the
// document set. Flags drive the bounded probability adjustments; there is
// no randomness anywhere in the ranking.
type EvidenceFlag string

const (
	FlagContractPresent    EvidenceFlag = "contract_present"
	FlagContractAbsent     EvidenceFlag = "contract_absent"
	FlagPackingListPresent EvidenceFlag = "packing_list_present"
	FlagAllDocsPresent     EvidenceFlag = "all_docs_present"
	FlagManyValues         EvidenceFlag = "more_than_two_values"
)

// Adjustment nudges a cause's baseline probability when a flag holds.
// The diagnoser clamps the summed deltas to ±0.10 of the baseline.
type Adjustment struct {
	When  EvidenceFlag
	Delta float64
	Note  string
}

// CauseTemplate is one entry of the static cause-knowledge table.
type CauseTemplate struct {
	ID              string
	Label           l10n.Text
	BaseProbability float64
	Evidence        []string
	Adjust          []Adjustment
}

var entryErrorAdjust = []Adjustment{
	{When: FlagManyValues, Delta: 0.05, Note: "more than two distinct values observed, typical of uncoordinated manual edits"},
}

// causeTemplates is domain knowledge, keyed by finding id. Baselines within
// one finding sum to 1.
var causeTemplates = map[crosscheck.FindingID][]CauseTemplate{
	crosscheck.FindingIncoterms: {
		{
			ID:              "terms-renegotiated",
			Label:           l10n.Pair("Terms were renegotiated after the quotation and only the contract was updated", "견적 이후 조건이 재협상되어 계약서만 갱신됨"),
			BaseProbability: 0.55,
			Evidence:        []string{"incoterms changes between quotation and contract usually follow a renegotiation"},
			Adjust: []Adjustment{
				{When: FlagContractPresent, Delta: 0.05, Note: "a signed contract exists to renegotiate against"},
			},
		},
		{
			ID:              "stale-template",
			Label:           l10n.Pair("An outdated document template carried over the old terms", "구버전 문서 템플릿이 이전 조건을 그대로 복사함"),
			BaseProbability: 0.30,
		},
		{
			ID:              "entry-error",
			Label:           l10n.Pair("Manual entry error while drafting", "문서 작성 중 수기 입력 오류"),
			BaseProbability: 0.15,
			Adjust:          entryErrorAdjust,
		},
	},
	crosscheck.FindingPaymentMethod: {
		{
			ID:              "payment-renegotiated",
			Label:           l10n.Pair("Payment terms were renegotiated and not propagated to every document", "결제 조건이 재협상되었으나 모든 문서에 반영되지 않음"),
			BaseProbability: 0.50,
			Adjust: []Adjustment{
				{When: FlagContractPresent, Delta: 0.05, Note: "a signed contract exists to renegotiate against"},
			},
		},
		{
			ID:              "copied-previous-deal",
			Label:           l10n.Pair("Terms were copied from a previous deal with the same buyer", "동일 바이어와의 이전 거래 조건을 복사함"),
			BaseProbability: 0.30,
		},
		{
			ID:              "entry-error",
			Label:           l10n.Pair("Manual entry error while drafting", "문서 작성 중 수기 입력 오류"),
			BaseProbability: 0.20,
			Adjust:          entryErrorAdjust,
		},
	},
	crosscheck.FindingCurrency: {
		{
			ID:              "multi-currency-quote",
			Label:           l10n.Pair("The quotation was prepared in a different currency than the settlement currency", "견적 통화와 결제 통화가 다르게 준비됨"),
			BaseProbability: 0.45,
		},
		{
			ID:              "template-default",
			Label:           l10n.Pair("A template default currency was never changed", "템플릿 기본 통화를 변경하지 않음"),
			BaseProbability: 0.35,
		},
		{
			ID:              "entry-error",
			Label:           l10n.Pair("Manual entry error while drafting", "문서 작성 중 수기 입력 오류"),
			BaseProbability: 0.20,
			Adjust:          entryErrorAdjust,
		},
	},
	crosscheck.FindingBuyerName: {
		{
			ID:              "legal-vs-trade-name",
			Label:           l10n.Pair("One document uses the trade name, another the registered legal name", "한 문서는 상호, 다른 문서는 법인 등기명을 사용함"),
			BaseProbability: 0.60,
		},
		{
			ID:              "subsidiary-confusion",
			Label:           l10n.Pair("A subsidiary or branch was named instead of the contracting entity", "계약 주체 대신 자회사/지사 명의가 기재됨"),
			BaseProbability: 0.25,
		},
		{
			ID:              "typo",
			Label:           l10n.Pair("Spelling mistake in the party name", "상호명 오탈자"),
			BaseProbability: 0.15,
			Adjust:          entryErrorAdjust,
		},
	},
	crosscheck.FindingAddress: {
		{
			ID:              "relocation",
			Label:           l10n.Pair("The buyer relocated and older documents keep the previous address", "바이어 이전 후 구주소가 일부 문서에 남아 있음"),
			BaseProbability: 0.50,
		},
		{
			ID:              "billing-vs-shipping",
			Label:           l10n.Pair("Billing address and shipping address were mixed up", "청구지 주소와 배송지 주소가 혼용됨"),
			BaseProbability: 0.35,
		},
		{
			ID:              "typo",
			Label:           l10n.Pair("Address entry error", "주소 입력 오류"),
			BaseProbability: 0.15,
			Adjust:          entryErrorAdjust,
		},
	},
	crosscheck.FindingLeadTime: {
		{
			ID:              "schedule-slipped",
			Label:           l10n.Pair("The production schedule slipped after the quotation", "견적 이후 생산 일정이 지연됨"),
			BaseProbability: 0.50,
		},
		{
			ID:              "optimistic-quote",
			Label:           l10n.Pair("The quotation used an optimistic estimate sales could not hold", "견적에 무리한 납기 추정치가 사용됨"),
			BaseProbability: 0.30,
		},
		{
			ID:              "unit-confusion",
			Label:           l10n.Pair("Days and weeks were confused between documents", "일(日)과 주(週) 단위가 문서 간 혼동됨"),
			BaseProbability: 0.20,
		},
	},
	crosscheck.FindingDestination: {
		{
			ID:              "routing-changed",
			Label:           l10n.Pair("The forwarder changed the routing after earlier documents were issued", "포워더가 운송 경로를 변경했으나 기존 문서가 갱신되지 않음"),
			BaseProbability: 0.45,
			Adjust: []Adjustment{
				{When: FlagPackingListPresent, Delta: 0.05, Note: "a packing list exists, so booking-level routing is already decided"},
			},
		},
		{
			ID:              "city-vs-port",
			Label:           l10n.Pair("Destination city and destination port were mixed up", "도착 도시와 도착 항구가 혼동됨"),
			BaseProbability: 0.35,
		},
		{
			ID:              "entry-error",
			Label:           l10n.Pair("Destination entry error", "도착지 입력 오류"),
			BaseProbability: 0.20,
			Adjust:          entryErrorAdjust,
		},
	},
	crosscheck.FindingQuantity: {
		{
			ID:              "partial-shipment",
			Label:           l10n.Pair("A partial shipment was agreed and only some documents reflect it", "분할 선적이 합의되었으나 일부 문서에만 반영됨"),
			BaseProbability: 0.45,
			Adjust: []Adjustment{
				{When: FlagPackingListPresent, Delta: 0.05, Note: "a packing list exists, so loading-level quantities are known"},
			},
		},
		{
			ID:              "stock-shortage",
			Label:           l10n.Pair("Loaded quantity fell short of the order at the warehouse", "출고 시 재고 부족으로 주문 수량에 미달함"),
			BaseProbability: 0.30,
		},
		{
			ID:              "entry-error",
			Label:           l10n.Pair("Quantity entry error", "수량 입력 오류"),
			BaseProbability: 0.25,
			Adjust:          entryErrorAdjust,
		},
	},
	crosscheck.FindingPrice: {
		{
			ID:              "late-discount",
			Label:           l10n.Pair("A discount was agreed after the quotation and applied inconsistently", "견적 이후 합의된 할인이 일부 문서에만 적용됨"),
			BaseProbability: 0.45,
		},
		{
			ID:              "entry-error",
			Label:           l10n.Pair("Unit price entry error", "단가 입력 오류"),
			BaseProbability: 0.30,
			Adjust:          entryErrorAdjust,
		},
		{
			ID:              "unit-basis-confusion",
			Label:           l10n.Pair("Price per unit and price per package were confused", "개당 단가와 포장 단위 단가가 혼동됨"),
			BaseProbability: 0.25,
		},
	},
	crosscheck.FindingTotals: {
		{
			ID:              "fees-on-one-side",
			Label:           l10n.Pair("Shipping or insurance was added on one document only", "운임/보험료가 한쪽 문서에만 합산됨"),
			BaseProbability: 0.50,
		},
		{
			ID:              "stale-line-items",
			Label:           l10n.Pair("Line items changed after one document's totals were computed", "품목 변경 후 일부 문서의 합계가 재계산되지 않음"),
			BaseProbability: 0.25,
		},
		{
			ID:              "rounding-policy",
			Label:           l10n.Pair("The two documents round amounts differently", "두 문서의 반올림 방식이 다름"),
			BaseProbability: 0.25,
		},
	},
	crosscheck.FindingLineAmount: {
		{
			ID:              "recalc-skipped",
			Label:           l10n.Pair("The amount column was not recalculated after a quantity or price edit", "수량/단가 수정 후 금액란이 재계산되지 않음"),
			BaseProbability: 0.60,
		},
		{
			ID:              "rounding",
			Label:           l10n.Pair("Per-line rounding differs from the multiplication result", "라인별 반올림이 곱셈 결과와 다름"),
			BaseProbability: 0.40,
		},
	},
	crosscheck.FindingGrandTotal: {
		{
			ID:              "recalc-skipped",
			Label:           l10n.Pair("The grand total was not recalculated after a component changed", "구성 금액 변경 후 총액이 재계산되지 않음"),
			BaseProbability: 0.60,
		},
		{
			ID:              "hidden-fee",
			Label:           l10n.Pair("A fee was added to the total without being itemized", "항목에 없는 수수료가 총액에만 반영됨"),
			BaseProbability: 0.40,
		},
	},
}

// genericCauses backs findings with no table entry. Its low baseline keeps
// needsConfirmation true, so an unrecognized finding always reaches a human.
var genericCauses = []CauseTemplate{
	{
		ID:              "needs-manual-review",
		Label:           l10n.Pair("Unrecognized inconsistency; needs manual review", "알 수 없는 불일치 유형으로 수동 검토 필요"),
		BaseProbability: 0.40,
	},
}

// PriorityRule orders document kinds by trustworthiness for one field. A nil
// order means the resolution is arithmetic recomputation, not a document.
type PriorityRule struct {
	Order     []canonical.DocumentKind
	Rationale string
}

var sourcePriority = map[crosscheck.FindingID]PriorityRule{
	crosscheck.FindingIncoterms: {
		Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindQuotation, canonical.KindCommercialInvoice, canonical.KindPackingList},
		Rationale: "Contract terms are legally binding; operational documents must follow the contract.",
	},
	crosscheck.FindingPaymentMethod: {
		Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindQuotation, canonical.KindCommercialInvoice},
		Rationale: "Payment terms are fixed by the contract; the invoice only restates them.",
	},
	crosscheck.FindingCurrency: {
		Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindCommercialInvoice, canonical.KindQuotation},
		Rationale: "The settlement currency is a contractual term; banks settle against the invoice.",
	},
	crosscheck.FindingBuyerName: {
		Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindCommercialInvoice, canonical.KindQuotation, canonical.KindPackingList},
		Rationale: "The contract carries the registered legal name of the contracting entity.",
	},
	crosscheck.FindingAddress: {
		Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindCommercialInvoice, canonical.KindPackingList, canonical.KindQuotation},
		Rationale: "The contract carries the registered address; the invoice the current billing address.",
	},
	crosscheck.FindingLeadTime: {
		Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindQuotation, canonical.KindCommercialInvoice},
		Rationale: "The contractual delivery window governs; the quotation was an estimate.",
	},
	crosscheck.FindingDestination: {
		Order:     []canonical.DocumentKind{canonical.KindPackingList, canonical.KindContract, canonical.KindCommercialInvoice, canonical.KindQuotation},
		Rationale: "The packing list carries the booking-level shipping instruction, the most operationally current destination.",
	},
	crosscheck.FindingQuantity: {
		Order:     []canonical.DocumentKind{canonical.KindQuotation, canonical.KindContract, canonical.KindCommercialInvoice, canonical.KindPackingList},
		Rationale: "The quotation is the quantity the buyer accepted; unify to the quotation quantity unless a partial shipment was agreed.",
	},
	crosscheck.FindingPrice: {
		Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindQuotation, canonical.KindCommercialInvoice},
		Rationale: "Contracted unit prices govern settlement.",
	},
	crosscheck.FindingTotals: {
		Order:     []canonical.DocumentKind{canonical.KindQuotation, canonical.KindCommercialInvoice},
		Rationale: "The quotation is the commercial basis the buyer approved; the invoice must reconcile to it.",
	},
	crosscheck.FindingLineAmount: {
		Rationale: "Line amounts are derived values; recompute them as quantity × unit price.",
	},
	crosscheck.FindingGrandTotal: {
		Rationale: "The grand total is a derived value; recompute it as subtotal + shipping + insurance.",
	},
}

// genericPriority backs findings with no priority entry.
var genericPriority = PriorityRule{
	Order:     []canonical.DocumentKind{canonical.KindContract, canonical.KindQuotation, canonical.KindCommercialInvoice, canonical.KindPackingList},
	Rationale: "No field-specific rule; prefer the contract as the legally binding document.",
}

var audiencesByFinding = map[crosscheck.FindingID][]Audience{
	crosscheck.FindingIncoterms:     {AudienceCounterparty, AudienceLogistics},
	crosscheck.FindingPaymentMethod: {AudienceCounterparty, AudienceInternal},
	crosscheck.FindingCurrency:      {AudienceCounterparty, AudienceInternal},
	crosscheck.FindingBuyerName:     {AudienceCounterparty, AudienceInternal},
	crosscheck.FindingAddress:       {AudienceCounterparty, AudienceLogistics},
	crosscheck.FindingLeadTime:      {AudienceCounterparty, AudienceLogistics},
	crosscheck.FindingDestination:   {AudienceCounterparty, AudienceLogistics},
	crosscheck.FindingQuantity:      {AudienceCounterparty, AudienceLogistics, AudienceInternal},
	crosscheck.FindingPrice:         {AudienceCounterparty, AudienceInternal},
	crosscheck.FindingTotals:        {AudienceCounterparty, AudienceInternal},
	crosscheck.FindingLineAmount:    {AudienceInternal},
	crosscheck.FindingGrandTotal:    {AudienceInternal},
}

var riskByFinding = map[crosscheck.FindingID]l10n.Text{
	crosscheck.FindingIncoterms:     l10n.Pair("Freight, insurance and customs duties may be paid by the wrong party, and the dispute surfaces only after the goods move.", "운임·보험·관세 부담 주체가 뒤바뀔 수 있으며, 화물이 이동한 뒤에야 분쟁이 드러납니다."),
	crosscheck.FindingPaymentMethod: l10n.Pair("The remittance may be rejected or held by the bank, delaying settlement past the agreed window.", "은행이 송금을 거절하거나 보류하여 합의된 기한 내 결제가 지연될 수 있습니다."),
	crosscheck.FindingCurrency:      l10n.Pair("Settlement may arrive in the wrong currency with conversion losses on one side.", "잘못된 통화로 결제되어 한쪽이 환전 손실을 부담할 수 있습니다."),
	crosscheck.FindingBuyerName:     l10n.Pair("Customs or the bank may refuse documents that do not name the same party.", "당사자 명의가 다른 서류는 세관·은행에서 거절될 수 있습니다."),
	crosscheck.FindingAddress:       l10n.Pair("Deliveries and legal notices may go to an outdated address.", "화물과 법적 통지가 이전 주소로 발송될 수 있습니다."),
	crosscheck.FindingLeadTime:      l10n.Pair("Production and vessel booking are planned against different dates.", "생산 일정과 선적 예약이 서로 다른 날짜 기준으로 진행됩니다."),
	crosscheck.FindingDestination:   l10n.Pair("Freight may be booked to the wrong port.", "화물이 잘못된 항구로 예약될 수 있습니다."),
	crosscheck.FindingQuantity:      l10n.Pair("Shipped, invoiced and declared quantities diverge; customs and payment both stall.", "선적·청구·신고 수량이 달라 통관과 결제가 모두 지연됩니다."),
	crosscheck.FindingPrice:         l10n.Pair("The buyer pays a price the seller never confirmed, or refuses the invoice.", "바이어가 확정되지 않은 단가로 지불하거나 인보이스를 거절할 수 있습니다."),
	crosscheck.FindingTotals:        l10n.Pair("The remittance will not match at least one document and reconciliation fails.", "송금액이 최소 한 개 문서와 불일치하여 대사가 실패합니다."),
	crosscheck.FindingLineAmount:    l10n.Pair("Every downstream total inherits the arithmetic error.", "모든 하위 합계가 계산 오류를 그대로 물려받습니다."),
	crosscheck.FindingGrandTotal:    l10n.Pair("The payable amount printed on the document is wrong.", "문서에 인쇄된 지불 금액 자체가 잘못되어 있습니다."),
}

var genericRisk = l10n.Pair(
	"Unresolved inconsistencies delay customs clearance and payment.",
	"불일치를 방치하면 통관과 대금 결제가 지연됩니다.",
)
