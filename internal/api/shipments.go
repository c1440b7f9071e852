package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradedesk/tradecheck/internal/auth"
	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/storage"
	"github.com/tradedesk/tradecheck/pkg/models"
)

func shipmentResponse(s *storage.Shipment) models.ShipmentResponse {
	return models.ShipmentResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Buyer:     s.Buyer,
		Seller:    s.Seller,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shipment := &storage.Shipment{
		AccountID: accountID,
		Name:      req.Name,
		Buyer:     req.Buyer,
		Seller:    req.Seller,
	}
	if err := s.shipmentRepo.Create(r.Context(), shipment); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create shipment")
		return
	}
	respondJSON(w, http.StatusCreated, shipmentResponse(shipment))
}

func (s *Server) handleListShipments(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shipments, err := s.shipmentRepo.ListByAccount(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list shipments")
		return
	}

	out := make([]models.ShipmentResponse, len(shipments))
	for i, sh := range shipments {
		out[i] = shipmentResponse(sh)
	}
	respondJSON(w, http.StatusOK, out)
}

// loadShipment parses the URL shipment id and checks ownership.
func (s *Server) loadShipment(w http.ResponseWriter, r *http.Request) (*storage.Shipment, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "shipmentID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid shipment id")
		return nil, false
	}

	shipment, err := s.shipmentRepo.GetByID(r.Context(), id)
	if err == storage.ErrNotFound {
		respondError(w, http.StatusNotFound, "shipment not found")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch shipment")
		return nil, false
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || shipment.AccountID.String() != claims.AccountID {
		respondError(w, http.StatusForbidden, "access denied")
		return nil, false
	}
	return shipment, true
}

func (s *Server) handleGetShipment(w http.ResponseWriter, r *http.Request) {
	shipment, ok := s.loadShipment(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, shipmentResponse(shipment))
}

func (s *Server) handleDeleteShipment(w http.ResponseWriter, r *http.Request) {
	shipment, ok := s.loadShipment(w, r)
	if !ok {
		return
	}
	if err := s.shipmentRepo.Delete(r.Context(), shipment.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete shipment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadDocument accepts one structured document payload, normalizes
// it into the canonical model and stores it as a new revision.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	shipment, ok := s.loadShipment(w, r)
	if !ok {
		return
	}

	kind := canonical.DocumentKind(chi.URLParam(r, "kind"))
	if !canonical.ValidKind(kind) {
		respondError(w, http.StatusBadRequest, "unknown document kind")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	version, err := s.revisionRepo.LatestVersion(r.Context(), shipment.ID, kind)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to resolve document version")
		return
	}

	rev := &storage.DocumentRevision{
		ShipmentID: shipment.ID,
		Kind:       kind,
		Version:    version + 1,
		Fields:     canonical.Extract(kind, payload),
	}
	if err := s.revisionRepo.Save(r.Context(), rev); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	respondJSON(w, http.StatusCreated, models.UploadDocumentResponse{
		Kind:    string(kind),
		Version: rev.Version,
	})
}
