package models

// Wire-level request/response shapes for the trade desk API. Engine output
// types (reports, findings, kits) serialize themselves; only the inbound
// shapes and thin response envelopes live here.

// RegisterRequest creates an API account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateShipmentRequest opens a new deal workspace.
type CreateShipmentRequest struct {
	Name   string `json:"name"`
	Buyer  string `json:"buyer,omitempty"`
	Seller string `json:"seller,omitempty"`
}

// ShipmentResponse is the outward shape of a shipment.
type ShipmentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Buyer     string `json:"buyer,omitempty"`
	Seller    string `json:"seller,omitempty"`
	CreatedAt string `json:"created_at"`
}

// UploadDocumentResponse acknowledges a stored document revision.
type UploadDocumentResponse struct {
	Kind    string `json:"kind"`
	Version int    `json:"version"`
}

// FixRequest applies one resolution, either chosen by a human (via a
// confirmation question) or taken from a diagnosis recommendation.
type FixRequest struct {
	FindingID  string `json:"finding_id"`
	Value      string `json:"value"`
	QuestionID string `json:"question_id,omitempty"`
}
