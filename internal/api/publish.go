package api

import (
	"errors"
	"net/http"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/publish"
	"github.com/gorilla/mux"
)

type publishRequest struct {
	IDs []string `json:"ids"`
}

type adsRequest struct {
	CampaignID   string   `json:"campaignId"`
	CreativeIDs  []string `json:"creativeIds"`
	PlacementIDs []string `json:"placementIds"`
}

// Publish pushes the drafts of the given rows, or of the grid selection when
// no ids are sent. Per-item failures are part of a 200 response.
func (s *Server) Publish(w http.ResponseWriter, r *http.Request, sc scope) {
	grid := models.Grid(mux.Vars(r)["grid"])
	sel := sc.ws.Selection(grid)
	if sel == nil {
		writeError(w, http.StatusNotFound, "unknown grid")
		return
	}

	var req publishRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	ids := req.IDs
	if len(ids) == 0 {
		ids = sel.IDs()
	}

	var res publish.Result
	switch grid {
	case models.GridPlacements:
		res = s.Publisher.PublishPlacements(r.Context(), sc.gw, sc.ws, ids)
	case models.GridCampaigns:
		res = s.Publisher.PublishCampaigns(r.Context(), sc.gw, sc.ws, ids)
	case models.GridCreatives:
		res = s.Publisher.PublishCreatives(r.Context(), sc.gw, sc.ws, ids)
	}

	writeJSON(w, http.StatusOK, res)
}

// CreateAds links every selected creative to every selected placement.
func (s *Server) CreateAds(w http.ResponseWriter, r *http.Request, sc scope) {
	var req adsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.CampaignID == "" {
		writeError(w, http.StatusBadRequest, "campaignId is required")
		return
	}
	if len(req.CreativeIDs) == 0 || len(req.PlacementIDs) == 0 {
		writeError(w, http.StatusBadRequest, "select at least one creative and one placement")
		return
	}

	res := s.Publisher.CreateAds(r.Context(), sc.gw, sc.ws, req.CampaignID, req.CreativeIDs, req.PlacementIDs)
	writeJSON(w, http.StatusOK, res)
}
