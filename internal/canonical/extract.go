package canonical

import (
	"strings"

	"github.com/spf13/cast"
)

// Extract normalizes a structured document payload of the given kind into
// canonical Fields. It is total: a missing or malformed source field yields
// the undefined value ("" / nil) in the output, never an error, because
// partially completed drafts are a normal input state.
func Extract(kind DocumentKind, content map[string]any) Fields {
	var f Fields
	rules, ok := extractRules[kind]
	if !ok || content == nil {
		return f
	}

	for _, rule := range rules.scalars {
		if v, ok := digString(content, rule.path); ok {
			rule.set(&f, v)
		}
	}
	for _, rule := range rules.numbers {
		if v, ok := digNumber(content, rule.path); ok {
			rule.set(&f, v)
		}
	}

	f.Items = extractItems(content, rules.items)
	return f
}

type scalarRule struct {
	path string
	set  func(*Fields, string)
}

type numberRule struct {
	path string
	set  func(*Fields, float64)
}

// itemRules describes where a document kind keeps its item rows and how the
// row keys map onto the canonical line item.
type itemRules struct {
	listPath  string
	sku       string
	name      string
	hsCode    string
	unit      string
	packaging string
	quantity  string
	unitPrice string
	amount    string
}

type kindRules struct {
	scalars []scalarRule
	numbers []numberRule
	items   itemRules
}

// extractRules maps each document kind's own field paths onto the canonical
// model. Source shapes follow the authoring templates: a quotation speaks of
// supplier/customer, a contract of legal parties, an invoice of
// exporter/importer, a packing list of shipper/consignee.
var extractRules = map[DocumentKind]kindRules{
	KindQuotation: {
		scalars: []scalarRule{
			{"supplier.name", func(f *Fields, v string) { f.Seller.Name = v }},
			{"supplier.contact", func(f *Fields, v string) { f.Seller.Contact = v }},
			{"supplier.address", func(f *Fields, v string) { f.Seller.Address = v }},
			{"supplier.email", func(f *Fields, v string) { f.Seller.Email = v }},
			{"customer.name", func(f *Fields, v string) { f.Buyer.Name = v }},
			{"customer.contact", func(f *Fields, v string) { f.Buyer.Contact = v }},
			{"customer.address", func(f *Fields, v string) { f.Buyer.Address = v }},
			{"customer.email", func(f *Fields, v string) { f.Buyer.Email = v }},
			{"terms.incoterms", func(f *Fields, v string) { f.Terms.Incoterms = v }},
			{"terms.payment_method", func(f *Fields, v string) { f.Terms.PaymentMethod = v }},
			{"terms.payment_split", func(f *Fields, v string) { f.Terms.PaymentSplit = v }},
			{"terms.currency", func(f *Fields, v string) { f.Terms.Currency = v }},
			{"terms.validity", func(f *Fields, v string) { f.Terms.Validity = v }},
			{"shipping.dest_country", func(f *Fields, v string) { f.Shipment.DestCountry = v }},
			{"shipping.dest_city", func(f *Fields, v string) { f.Shipment.DestCity = v }},
			{"shipping.dest_port", func(f *Fields, v string) { f.Shipment.DestPort = v }},
			{"shipping.lead_time", func(f *Fields, v string) { f.Shipment.LeadTime = v }},
			{"shipping.delivery_date", func(f *Fields, v string) { f.Shipment.DeliveryDate = v }},
		},
		numbers: []numberRule{
			{"totals.subtotal", func(f *Fields, v float64) { f.Totals.Subtotal = Float(v) }},
			{"totals.shipping", func(f *Fields, v float64) { f.Totals.Shipping = Float(v) }},
			{"totals.insurance", func(f *Fields, v float64) { f.Totals.Insurance = Float(v) }},
			{"totals.grand_total", func(f *Fields, v float64) { f.Totals.GrandTotal = Float(v) }},
		},
		items: itemRules{
			listPath: "items",
			sku:      "sku", name: "name", hsCode: "hs_code", unit: "unit",
			packaging: "packaging", quantity: "quantity", unitPrice: "unit_price",
			amount: "amount",
		},
	},
	KindContract: {
		scalars: []scalarRule{
			{"parties.seller.legal_name", func(f *Fields, v string) { f.Seller.Name = v }},
			{"parties.seller.representative", func(f *Fields, v string) { f.Seller.Contact = v }},
			{"parties.seller.registered_address", func(f *Fields, v string) { f.Seller.Address = v }},
			{"parties.seller.email", func(f *Fields, v string) { f.Seller.Email = v }},
			{"parties.buyer.legal_name", func(f *Fields, v string) { f.Buyer.Name = v }},
			{"parties.buyer.representative", func(f *Fields, v string) { f.Buyer.Contact = v }},
			{"parties.buyer.registered_address", func(f *Fields, v string) { f.Buyer.Address = v }},
			{"parties.buyer.email", func(f *Fields, v string) { f.Buyer.Email = v }},
			{"terms.trade_terms", func(f *Fields, v string) { f.Terms.Incoterms = v }},
			{"terms.payment.method", func(f *Fields, v string) { f.Terms.PaymentMethod = v }},
			{"terms.payment.split", func(f *Fields, v string) { f.Terms.PaymentSplit = v }},
			{"terms.currency", func(f *Fields, v string) { f.Terms.Currency = v }},
			{"terms.validity_period", func(f *Fields, v string) { f.Terms.Validity = v }},
			{"delivery.dest_country", func(f *Fields, v string) { f.Shipment.DestCountry = v }},
			{"delivery.dest_city", func(f *Fields, v string) { f.Shipment.DestCity = v }},
			{"delivery.dest_port", func(f *Fields, v string) { f.Shipment.DestPort = v }},
			{"delivery.lead_time", func(f *Fields, v string) { f.Shipment.LeadTime = v }},
			{"delivery.delivery_date", func(f *Fields, v string) { f.Shipment.DeliveryDate = v }},
		},
		numbers: []numberRule{
			{"contract_value.subtotal", func(f *Fields, v float64) { f.Totals.Subtotal = Float(v) }},
			{"contract_value.shipping", func(f *Fields, v float64) { f.Totals.Shipping = Float(v) }},
			{"contract_value.insurance", func(f *Fields, v float64) { f.Totals.Insurance = Float(v) }},
			{"contract_value.total", func(f *Fields, v float64) { f.Totals.GrandTotal = Float(v) }},
		},
		items: itemRules{
			listPath: "goods",
			sku:      "item_no", name: "description", hsCode: "hs_code", unit: "unit",
			packaging: "packaging", quantity: "quantity", unitPrice: "unit_price",
			amount: "amount",
		},
	},
	KindCommercialInvoice: {
		scalars: []scalarRule{
			{"exporter.name", func(f *Fields, v string) { f.Seller.Name = v }},
			{"exporter.contact", func(f *Fields, v string) { f.Seller.Contact = v }},
			{"exporter.address", func(f *Fields, v string) { f.Seller.Address = v }},
			{"exporter.email", func(f *Fields, v string) { f.Seller.Email = v }},
			{"importer.name", func(f *Fields, v string) { f.Buyer.Name = v }},
			{"importer.contact", func(f *Fields, v string) { f.Buyer.Contact = v }},
			{"importer.address", func(f *Fields, v string) { f.Buyer.Address = v }},
			{"importer.email", func(f *Fields, v string) { f.Buyer.Email = v }},
			{"delivery_terms", func(f *Fields, v string) { f.Terms.Incoterms = v }},
			{"payment_terms.method", func(f *Fields, v string) { f.Terms.PaymentMethod = v }},
			{"payment_terms.split", func(f *Fields, v string) { f.Terms.PaymentSplit = v }},
			{"currency", func(f *Fields, v string) { f.Terms.Currency = v }},
			{"destination.country", func(f *Fields, v string) { f.Shipment.DestCountry = v }},
			{"destination.city", func(f *Fields, v string) { f.Shipment.DestCity = v }},
			{"destination.port", func(f *Fields, v string) { f.Shipment.DestPort = v }},
			{"shipment.lead_time", func(f *Fields, v string) { f.Shipment.LeadTime = v }},
			{"shipment.eta", func(f *Fields, v string) { f.Shipment.DeliveryDate = v }},
		},
		numbers: []numberRule{
			{"summary.subtotal", func(f *Fields, v float64) { f.Totals.Subtotal = Float(v) }},
			{"summary.freight", func(f *Fields, v float64) { f.Totals.Shipping = Float(v) }},
			{"summary.insurance", func(f *Fields, v float64) { f.Totals.Insurance = Float(v) }},
			{"summary.total", func(f *Fields, v float64) { f.Totals.GrandTotal = Float(v) }},
		},
		items: itemRules{
			listPath: "lines",
			sku:      "product_code", name: "description", hsCode: "hs_code", unit: "unit",
			packaging: "packing", quantity: "qty", unitPrice: "price",
			amount: "line_total",
		},
	},
	KindPackingList: {
		scalars: []scalarRule{
			{"shipper.name", func(f *Fields, v string) { f.Seller.Name = v }},
			{"shipper.contact", func(f *Fields, v string) { f.Seller.Contact = v }},
			{"shipper.address", func(f *Fields, v string) { f.Seller.Address = v }},
			{"consignee.name", func(f *Fields, v string) { f.Buyer.Name = v }},
			{"consignee.contact", func(f *Fields, v string) { f.Buyer.Contact = v }},
			{"consignee.address", func(f *Fields, v string) { f.Buyer.Address = v }},
			{"ship_to.country", func(f *Fields, v string) { f.Shipment.DestCountry = v }},
			{"ship_to.city", func(f *Fields, v string) { f.Shipment.DestCity = v }},
			{"ship_to.port", func(f *Fields, v string) { f.Shipment.DestPort = v }},
			{"ship_to.etd", func(f *Fields, v string) { f.Shipment.DeliveryDate = v }},
		},
		items: itemRules{
			listPath: "packages",
			sku:      "sku", name: "description", hsCode: "hs_code", unit: "unit",
			packaging: "packaging", quantity: "quantity",
		},
	},
}

func extractItems(content map[string]any, rules itemRules) []LineItem {
	if rules.listPath == "" {
		return nil
	}
	raw, ok := dig(content, rules.listPath)
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	items := make([]LineItem, 0, len(list))
	for _, entry := range list {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := LineItem{
			SKU:       rowString(row, rules.sku),
			Name:      rowString(row, rules.name),
			HSCode:    rowString(row, rules.hsCode),
			Unit:      rowString(row, rules.unit),
			Packaging: rowString(row, rules.packaging),
			Quantity:  rowNumber(row, rules.quantity),
			UnitPrice: rowNumber(row, rules.unitPrice),
			Amount:    rowNumber(row, rules.amount),
		}
		if item.SKU == "" {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// dig walks a dot-separated path through nested maps.
func dig(content map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = content
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func digString(content map[string]any, path string) (string, bool) {
	raw, ok := dig(content, path)
	if !ok {
		return "", false
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

func digNumber(content map[string]any, path string) (float64, bool) {
	raw, ok := dig(content, path)
	if !ok {
		return 0, false
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func rowString(row map[string]any, key string) string {
	if key == "" {
		return ""
	}
	s, err := cast.ToStringE(row[key])
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func rowNumber(row map[string]any, key string) *float64 {
	if key == "" {
		return nil
	}
	raw, ok := row[key]
	if !ok || raw == nil {
		return nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil
	}
	return Float(v)
}
