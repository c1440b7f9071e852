package canonical

import (
	"strconv"
)

// DocumentKind identifies one of the four trade documents of a shipment.
type DocumentKind string

const (
	KindQuotation         DocumentKind = "quotation"
	KindContract          DocumentKind = "contract"
	KindCommercialInvoice DocumentKind = "commercial_invoice"
	KindPackingList       DocumentKind = "packing_list"
)

// AllKinds lists the document kinds in their fixed comparison order.
var AllKinds = []DocumentKind{
	KindQuotation,
	KindContract,
	KindCommercialInvoice,
	KindPackingList,
}

// ValidKind reports whether k is one of the four known document kinds.
func ValidKind(k DocumentKind) bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Party holds the identity of one side of the deal. Empty string means the
// source document did not define the field.
type Party struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Terms holds the commercial terms of the deal.
type Terms struct {
	Incoterms     string `json:"incoterms,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	PaymentSplit  string `json:"payment_split,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Validity      string `json:"validity,omitempty"`
}

// Shipment holds destination and timing fields.
type Shipment struct {
	DestCountry  string `json:"dest_country,omitempty"`
	DestCity     string `json:"dest_city,omitempty"`
	DestPort     string `json:"dest_port,omitempty"`
	LeadTime     string `json:"lead_time,omitempty"`
	DeliveryDate string `json:"delivery_date,omitempty"`
}

// LineItem is one traded item row. Numeric fields are pointers: nil means
// the source document did not define the value (partial drafts are normal).
type LineItem struct {
	SKU       string   `json:"sku"`
	Name      string   `json:"name,omitempty"`
	HSCode    string   `json:"hs_code,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
	Packaging string   `json:"packaging,omitempty"`
}

// Totals holds the money summary of a document.
type Totals struct {
	Subtotal   *float64 `json:"subtotal,omitempty"`
	Shipping   *float64 `json:"shipping,omitempty"`
	Insurance  *float64 `json:"insurance,omitempty"`
	GrandTotal *float64 `json:"grand_total,omitempty"`
}

// Fields is the canonical representation every document kind is normalized
// into before comparison.
type Fields struct {
	Buyer    Party      `json:"buyer"`
	Seller   Party      `json:"seller"`
	Terms    Terms      `json:"terms"`
	Shipment Shipment   `json:"shipment"`
	Items    []LineItem `json:"items,omitempty"`
	Totals   Totals     `json:"totals"`
}

// Document is one versioned trade document in canonical form.
type Document struct {
	Kind    DocumentKind `json:"kind"`
	Version int          `json:"version"`
	Fields  Fields       `json:"fields"`
}

// DocumentSet maps document kind to the current canonical document. A kind
// absent from the set means "not yet produced". The engine never mutates a
// set in place; fix application clones first.
type DocumentSet map[DocumentKind]*Document

// Get returns the document of the given kind, or nil.
func (s DocumentSet) Get(kind DocumentKind) *Document {
	return s[kind]
}

// Has reports whether the set contains a document of the given kind.
func (s DocumentSet) Has(kind DocumentKind) bool {
	return s[kind] != nil
}

// Kinds returns the kinds present in the set, in fixed comparison order.
func (s DocumentSet) Kinds() []DocumentKind {
	kinds := make([]DocumentKind, 0, len(s))
	for _, k := range AllKinds {
		if s[k] != nil {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Clone deep-copies the set so callers can mutate the copy freely.
func (s DocumentSet) Clone() DocumentSet {
	out := make(DocumentSet, len(s))
	for kind, doc := range s {
		if doc == nil {
			continue
		}
		cp := *doc
		cp.Fields = doc.Fields.Clone()
		out[kind] = &cp
	}
	return out
}

// Clone deep-copies the fields, including item rows and numeric pointers.
func (f Fields) Clone() Fields {
	out := f
	out.Items = make([]LineItem, len(f.Items))
	for i, item := range f.Items {
		cp := item
		cp.Quantity = cloneFloat(item.Quantity)
		cp.UnitPrice = cloneFloat(item.UnitPrice)
		cp.Amount = cloneFloat(item.Amount)
		out.Items[i] = cp
	}
	out.Totals.Subtotal = cloneFloat(f.Totals.Subtotal)
	out.Totals.Shipping = cloneFloat(f.Totals.Shipping)
	out.Totals.Insurance = cloneFloat(f.Totals.Insurance)
	out.Totals.GrandTotal = cloneFloat(f.Totals.GrandTotal)
	return out
}

// Item returns the line item with the given SKU, or nil.
func (f *Fields) Item(sku string) *LineItem {
	for i := range f.Items {
		if f.Items[i].SKU == sku {
			return &f.Items[i]
		}
	}
	return nil
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// Float returns a pointer to v; convenience for building documents.
func Float(v float64) *float64 {
	return &v
}

// FormatNumber renders a numeric field value the way observed values are
// reported: no exponent, no trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
