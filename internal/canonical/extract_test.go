package canonical

import (
	"testing"
)

func TestExtractQuotation(t *testing.T) {
	content := map[string]any{
		"supplier": map[string]any{
			"name":  "Hanbit Trading Co.",
			"email": "sales@hanbit.example",
		},
		"customer": map[string]any{
			"name":    "Acme Imports LLC",
			"address": "100 Harbor Blvd, Los Angeles",
		},
		"terms": map[string]any{
			"incoterms":      "FOB",
			"payment_method": "T/T",
			"currency":       "USD",
		},
		"shipping": map[string]any{
			"dest_country": "US",
			"dest_port":    "Long Beach",
			"lead_time":    "30 days",
		},
		"items": []any{
			map[string]any{
				"sku": "SKU001", "name": "Widget", "quantity": 500,
				"unit_price": 12.5, "amount": 6250,
			},
		},
		"totals": map[string]any{
			"subtotal":    6250,
			"shipping":    900,
			"grand_total": 7150,
		},
	}

	f := Extract(KindQuotation, content)

	if f.Seller.Name != "Hanbit Trading Co." {
		t.Errorf("expected seller name, got %q", f.Seller.Name)
	}
	if f.Buyer.Name != "Acme Imports LLC" {
		t.Errorf("expected buyer name, got %q", f.Buyer.Name)
	}
	if f.Terms.Incoterms != "FOB" || f.Terms.PaymentMethod != "T/T" || f.Terms.Currency != "USD" {
		t.Errorf("unexpected terms: %+v", f.Terms)
	}
	if f.Shipment.DestCountry != "US" || f.Shipment.DestPort != "Long Beach" {
		t.Errorf("unexpected shipment: %+v", f.Shipment)
	}
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	item := f.Items[0]
	if item.SKU != "SKU001" || item.Quantity == nil || *item.Quantity != 500 {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.UnitPrice == nil || *item.UnitPrice != 12.5 {
		t.Errorf("expected unit price 12.5, got %v", item.UnitPrice)
	}
	if f.Totals.Subtotal == nil || *f.Totals.Subtotal != 6250 {
		t.Errorf("expected subtotal 6250, got %v", f.Totals.Subtotal)
	}
	if f.Totals.Insurance != nil {
		t.Errorf("expected undefined insurance, got %v", *f.Totals.Insurance)
	}
}

func TestExtractContract(t *testing.T) {
	content := map[string]any{
		"parties": map[string]any{
			"seller": map[string]any{"legal_name": "Hanbit Trading Co., Ltd."},
			"buyer":  map[string]any{"legal_name": "Acme Imports LLC", "registered_address": "100 Harbor Blvd"},
		},
		"terms": map[string]any{
			"trade_terms": "CIF",
			"payment":     map[string]any{"method": "L/C"},
			"currency":    "USD",
		},
		"contract_value": map[string]any{
			"subtotal": 6250.0,
			"total":    7150.0,
		},
		"goods": []any{
			map[string]any{"item_no": "SKU001", "description": "Widget", "quantity": 500, "unit_price": 12.5},
		},
	}

	f := Extract(KindContract, content)

	if f.Seller.Name != "Hanbit Trading Co., Ltd." {
		t.Errorf("expected legal seller name, got %q", f.Seller.Name)
	}
	if f.Buyer.Address != "100 Harbor Blvd" {
		t.Errorf("expected buyer address, got %q", f.Buyer.Address)
	}
	if f.Terms.Incoterms != "CIF" || f.Terms.PaymentMethod != "L/C" {
		t.Errorf("unexpected terms: %+v", f.Terms)
	}
	if f.Totals.GrandTotal == nil || *f.Totals.GrandTotal != 7150 {
		t.Errorf("expected grand total 7150, got %v", f.Totals.GrandTotal)
	}
	if len(f.Items) != 1 || f.Items[0].SKU != "SKU001" {
		t.Errorf("unexpected items: %+v", f.Items)
	}
}

func TestExtractInvoiceLineKeys(t *testing.T) {
	content := map[string]any{
		"exporter":       map[string]any{"name": "Hanbit Trading Co."},
		"importer":       map[string]any{"name": "Acme Imports LLC"},
		"delivery_terms": "FOB",
		"currency":       "USD",
		"lines": []any{
			map[string]any{
				"product_code": "SKU001", "description": "Widget",
				"qty": 480, "price": 12.5, "line_total": 6000,
			},
		},
		"summary": map[string]any{"subtotal": 6000, "total": 6900, "freight": 900},
	}

	f := Extract(KindCommercialInvoice, content)

	if f.Terms.Incoterms != "FOB" {
		t.Errorf("expected delivery terms mapped to incoterms, got %q", f.Terms.Incoterms)
	}
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	item := f.Items[0]
	if item.SKU != "SKU001" || *item.Quantity != 480 || *item.UnitPrice != 12.5 || *item.Amount != 6000 {
		t.Errorf("invoice line keys not mapped: %+v", item)
	}
	if f.Totals.Shipping == nil || *f.Totals.Shipping != 900 {
		t.Errorf("expected freight mapped to shipping, got %v", f.Totals.Shipping)
	}
}

func TestExtractPackingListHasNoPrices(t *testing.T) {
	content := map[string]any{
		"shipper":   map[string]any{"name": "Hanbit Trading Co."},
		"consignee": map[string]any{"name": "Acme Imports LLC"},
		"ship_to":   map[string]any{"country": "US", "port": "Long Beach"},
		"packages": []any{
			map[string]any{"sku": "SKU001", "quantity": 500, "packaging": "carton"},
		},
	}

	f := Extract(KindPackingList, content)

	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	if f.Items[0].UnitPrice != nil || f.Items[0].Amount != nil {
		t.Error("packing list items must not carry prices")
	}
	if f.Items[0].Quantity == nil || *f.Items[0].Quantity != 500 {
		t.Errorf("expected quantity 500, got %v", f.Items[0].Quantity)
	}
	if f.Shipment.DestPort != "Long Beach" {
		t.Errorf("expected dest port, got %q", f.Shipment.DestPort)
	}
}

func TestExtractToleratesMalformedInput(t *testing.T) {
	content := map[string]any{
		"supplier": "not a map",
		"terms":    map[string]any{"incoterms": "  "},
		"items": []any{
			"not a row",
			map[string]any{"sku": "", "quantity": 10},
			map[string]any{"sku": "SKU001", "quantity": "not a number"},
		},
		"totals": map[string]any{"subtotal": []any{1, 2}},
	}

	f := Extract(KindQuotation, content)

	if f.Seller.Name != "" {
		t.Errorf("expected empty seller name, got %q", f.Seller.Name)
	}
	if f.Terms.Incoterms != "" {
		t.Errorf("whitespace-only value should be undefined, got %q", f.Terms.Incoterms)
	}
	if len(f.Items) != 1 {
		t.Fatalf("expected rows without sku to be dropped, got %d items", len(f.Items))
	}
	if f.Items[0].Quantity != nil {
		t.Error("unparseable quantity should be nil")
	}
	if f.Totals.Subtotal != nil {
		t.Error("unparseable subtotal should be nil")
	}
}

func TestExtractUnknownKind(t *testing.T) {
	f := Extract(DocumentKind("bill_of_lading"), map[string]any{"x": 1})
	if f.Buyer.Name != "" || f.Items != nil {
		t.Errorf("unknown kind must yield zero fields, got %+v", f)
	}
}

func TestExtractStringCoercion(t *testing.T) {
	content := map[string]any{
		"items": []any{
			map[string]any{"sku": "SKU001", "quantity": "500", "unit_price": "12.5"},
		},
	}
	f := Extract(KindQuotation, content)
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	if f.Items[0].Quantity == nil || *f.Items[0].Quantity != 500 {
		t.Errorf("numeric string should coerce, got %v", f.Items[0].Quantity)
	}
	if f.Items[0].UnitPrice == nil || *f.Items[0].UnitPrice != 12.5 {
		t.Errorf("numeric string should coerce, got %v", f.Items[0].UnitPrice)
	}
}
