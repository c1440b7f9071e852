package api

import (
	"encoding/json"
	"net/http"

	"github.com/tradedesk/tradecheck/internal/commkit"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
	"github.com/tradedesk/tradecheck/internal/diagnosis"
	"github.com/tradedesk/tradecheck/internal/fixplan"
	"github.com/tradedesk/tradecheck/internal/report"
	"github.com/tradedesk/tradecheck/pkg/models"
)

// handleCrossCheck runs a full consistency pass over the shipment's latest
// document revisions and returns the assembled report.
func (s *Server) handleCrossCheck(w http.ResponseWriter, r *http.Request) {
	shipment, ok := s.loadShipment(w, r)
	if !ok {
		return
	}

	set, err := s.revisionRepo.LatestSet(r.Context(), shipment.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load documents")
		return
	}
	if len(set) == 0 {
		respondError(w, http.StatusConflict, "no documents uploaded yet")
		return
	}

	rep := report.Assemble(set, report.Options{
		ProjectName: shipment.Name,
		BrandName:   s.brandName,
	})
	s.metrics.ObserveResult(rep.Result)

	respondJSON(w, http.StatusOK, rep)
}

// handleApplyFix applies one chosen resolution, persists the touched
// revisions and returns the change log plus the counterparty correction
// messages and a fresh report.
func (s *Server) handleApplyFix(w http.ResponseWriter, r *http.Request) {
	shipment, ok := s.loadShipment(w, r)
	if !ok {
		return
	}

	var req models.FixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FindingID == "" || req.Value == "" {
		respondError(w, http.StatusBadRequest, "finding_id and value are required")
		return
	}

	set, err := s.revisionRepo.LatestSet(r.Context(), shipment.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load documents")
		return
	}
	if len(set) == 0 {
		respondError(w, http.StatusConflict, "no documents uploaded yet")
		return
	}

	findingID := crosscheck.FindingID(req.FindingID)
	finding := crosscheck.Detect(set).Finding(findingID)

	fix := fixplan.ApplyFix(set, findingID, req.Value)
	if fix.Applied {
		if err := s.revisionRepo.SaveSet(r.Context(), shipment.ID, fix.NewSet, fix.UpdatedKinds); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to persist fixed documents")
			return
		}
		s.metrics.FixesApplied.Inc()
	}

	rep := report.Assemble(fix.NewSet, report.Options{
		ProjectName: shipment.Name,
		BrandName:   s.brandName,
	})

	// The correction kit is rendered against the pre-fix finding so the
	// message can name both the wrong and the corrected values.
	var kit *commkit.Kit
	if fix.Applied && finding != nil {
		diag := diagnosis.Diagnose(*finding, set)
		k := commkit.GenerateKit(*finding, diag, commkit.Context{
			ProjectName: shipment.Name,
			BrandName:   s.brandName,
			Versions:    report.Versions(fix.NewSet),
			Changes:     fix.Changes,
		})
		kit = &k
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"fix":    fix,
		"kit":    kit,
		"report": rep,
	})
}

// handleApplyAllFixes sweeps every blocking finding with its diagnosed
// recommendation, persists the result and returns the post-fix report.
func (s *Server) handleApplyAllFixes(w http.ResponseWriter, r *http.Request) {
	shipment, ok := s.loadShipment(w, r)
	if !ok {
		return
	}

	set, err := s.revisionRepo.LatestSet(r.Context(), shipment.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load documents")
		return
	}
	if len(set) == 0 {
		respondError(w, http.StatusConflict, "no documents uploaded yet")
		return
	}

	bulk := fixplan.ApplyAllBlockingFixes(set)
	if bulk.AppliedCount > 0 {
		if err := s.revisionRepo.SaveSet(r.Context(), shipment.ID, bulk.NewSet, bulk.UpdatedKinds); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to persist fixed documents")
			return
		}
		for i := 0; i < bulk.AppliedCount; i++ {
			s.metrics.FixesApplied.Inc()
		}
	}

	rep := report.Assemble(bulk.NewSet, report.Options{
		ProjectName: shipment.Name,
		BrandName:   s.brandName,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"fixes":  bulk,
		"report": rep,
	})
}
