package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// fetched loads items into c, or empties it (drafted rows survive) when the
// fetch failed. Fetch failures are never surfaced to the operator.
func fetched[T models.Entity[T]](sc scope, c *models.Collection[T], what string, items []T, err error) {
	if err != nil {
		sc.log.Warn("fetch failed", zap.String("entity", what), zap.Error(err))
		c.Load(nil)
		return
	}
	c.Load(items)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// ListAdvertisers fetches advertisers for the profile.
func (s *Server) ListAdvertisers(w http.ResponseWriter, r *http.Request, sc scope) {
	items, err := sc.gw.ListAdvertisers(r.Context())
	fetched(sc, sc.ws.Advertisers, "advertisers", items, err)
	writeJSON(w, http.StatusOK, sc.ws.Advertisers.All())
}

// ListCampaigns fetches the campaigns of an advertiser.
func (s *Server) ListCampaigns(w http.ResponseWriter, r *http.Request, sc scope) {
	advertiserID := mux.Vars(r)["advertiserId"]
	items, err := sc.gw.ListCampaigns(r.Context(), advertiserID)
	fetched(sc, sc.ws.Campaigns, "campaigns", items, err)
	writeJSON(w, http.StatusOK, filter(sc.ws.Campaigns.All(), func(c models.Campaign) bool {
		return c.AdvertiserID == advertiserID
	}))
}

// ListPlacements fetches the placements of a campaign.
func (s *Server) ListPlacements(w http.ResponseWriter, r *http.Request, sc scope) {
	campaignID := mux.Vars(r)["campaignId"]
	items, err := sc.gw.ListPlacements(r.Context(), campaignID)
	fetched(sc, sc.ws.Placements, "placements", items, err)
	writeJSON(w, http.StatusOK, filter(sc.ws.Placements.All(), func(p models.Placement) bool {
		return p.CampaignID == campaignID
	}))
}

// ListSites fetches the site reference list.
func (s *Server) ListSites(w http.ResponseWriter, r *http.Request, sc scope) {
	items, err := sc.gw.ListSites(r.Context())
	fetched(sc, sc.ws.Sites, "sites", items, err)
	writeJSON(w, http.StatusOK, sc.ws.Sites.All())
}

// ListCreatives fetches the creatives of an advertiser.
func (s *Server) ListCreatives(w http.ResponseWriter, r *http.Request, sc scope) {
	advertiserID := mux.Vars(r)["advertiserId"]
	items, err := sc.gw.ListCreatives(r.Context(), advertiserID)
	fetched(sc, sc.ws.Creatives, "creatives", items, err)
	writeJSON(w, http.StatusOK, filter(sc.ws.Creatives.All(), func(c models.Creative) bool {
		return c.AdvertiserID == advertiserID
	}))
}

// ListLandingPages fetches the landing pages of an advertiser.
func (s *Server) ListLandingPages(w http.ResponseWriter, r *http.Request, sc scope) {
	advertiserID := mux.Vars(r)["advertiserId"]
	items, err := sc.gw.ListLandingPages(r.Context(), advertiserID)
	fetched(sc, sc.ws.LandingPages, "landing pages", items, err)
	writeJSON(w, http.StatusOK, filter(sc.ws.LandingPages.All(), func(l models.LandingPage) bool {
		return l.AdvertiserID == advertiserID
	}))
}

// AddCampaign creates a local campaign that is published like any draft.
func (s *Server) AddCampaign(w http.ResponseWriter, r *http.Request, sc scope) {
	var c models.Campaign
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(c.Name) == "" || c.AdvertiserID == "" {
		writeError(w, http.StatusBadRequest, "name and advertiserId are required")
		return
	}
	c.ID = models.NewLocalCampaignID()
	c.CMID = 0
	c.Status = models.CampaignDraft
	c.UpdatedAt = time.Now().UTC()
	if err := sc.ws.Campaigns.AddLocal(c); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	view, _ := sc.ws.Campaigns.MergedView(c.ID)
	writeJSON(w, http.StatusCreated, view)
}

// AddPlacement creates a local placement with a temporary id.
func (s *Server) AddPlacement(w http.ResponseWriter, r *http.Request, sc scope) {
	var p models.Placement
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if p.CampaignID == "" {
		writeError(w, http.StatusBadRequest, "campaignId is required")
		return
	}
	now := time.Now().UTC()
	p.ID = models.NewLocalPlacementID()
	p.CMID = 0
	if p.Type == "" {
		p.Type = models.PlacementDisplay
	}
	if p.Compatibility == "" {
		p.Compatibility = models.CompatibilityDisplay
		if p.Type == models.PlacementVideo {
			p.Compatibility = models.CompatibilityInStreamVideo
		}
	}
	p.CreatedAt, p.UpdatedAt = now, now
	if err := sc.ws.Placements.AddLocal(p); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	view, _ := sc.ws.Placements.MergedView(p.ID)
	writeJSON(w, http.StatusCreated, view)
}

// DeletePlacement removes a placement from the workspace. CM360 is not called.
func (s *Server) DeletePlacement(w http.ResponseWriter, r *http.Request, sc scope) {
	id := mux.Vars(r)["id"]
	if err := sc.ws.Placements.Delete(id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "placement not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sc.ws.Selection(models.GridPlacements).Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func patchDraft[T models.Entity[T]](w http.ResponseWriter, c *models.Collection[T], id string, patch models.Patch) {
	ok, err := c.UpdateDraft(id, patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		// unknown rows are ignored
		w.WriteHeader(http.StatusNoContent)
		return
	}
	view, _ := c.MergedView(id)
	writeJSON(w, http.StatusOK, view)
}

// UpdateDraft merges a partial change into the draft of one row.
func (s *Server) UpdateDraft(w http.ResponseWriter, r *http.Request, sc scope) {
	vars := mux.Vars(r)
	var patch models.Patch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	switch models.Grid(vars["grid"]) {
	case models.GridCampaigns:
		patchDraft(w, sc.ws.Campaigns, vars["id"], patch)
	case models.GridPlacements:
		patchDraft(w, sc.ws.Placements, vars["id"], patch)
	case models.GridCreatives:
		patchDraft(w, sc.ws.Creatives, vars["id"], patch)
	default:
		writeError(w, http.StatusNotFound, "unknown grid")
	}
}

// DiscardDraft drops local edits of one row.
func (s *Server) DiscardDraft(w http.ResponseWriter, r *http.Request, sc scope) {
	vars := mux.Vars(r)
	switch models.Grid(vars["grid"]) {
	case models.GridCampaigns:
		sc.ws.Campaigns.ClearDraft(vars["id"])
	case models.GridPlacements:
		sc.ws.Placements.ClearDraft(vars["id"])
	case models.GridCreatives:
		sc.ws.Creatives.ClearDraft(vars["id"])
	default:
		writeError(w, http.StatusNotFound, "unknown grid")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectionBody struct {
	IDs []string `json:"ids"`
}

// GetSelection returns the selected row ids of a grid.
func (s *Server) GetSelection(w http.ResponseWriter, r *http.Request, sc scope) {
	sel := sc.ws.Selection(models.Grid(mux.Vars(r)["grid"]))
	if sel == nil {
		writeError(w, http.StatusNotFound, "unknown grid")
		return
	}
	writeJSON(w, http.StatusOK, selectionBody{IDs: sel.IDs()})
}

// SetSelection replaces the selected row ids of a grid.
func (s *Server) SetSelection(w http.ResponseWriter, r *http.Request, sc scope) {
	sel := sc.ws.Selection(models.Grid(mux.Vars(r)["grid"]))
	if sel == nil {
		writeError(w, http.StatusNotFound, "unknown grid")
		return
	}
	var body selectionBody
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	sel.Set(body.IDs)
	writeJSON(w, http.StatusOK, selectionBody{IDs: sel.IDs()})
}
