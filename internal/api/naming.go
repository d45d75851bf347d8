package api

import (
	"net/http"
	"strings"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/naming"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/wizard"
	"go.uber.org/zap"
)

type namingRequest struct {
	Grid models.Grid `json:"grid"`
	IDs  []string    `json:"ids"`
	Rule naming.Rule `json:"rule"`
}

type namingResponse struct {
	Renames []naming.Rename `json:"renames"`
}

type importRequest struct {
	Text           string `json:"text"`
	FallbackSiteID string `json:"fallbackSiteId,omitempty"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
}

type importResponse struct {
	Rows      []naming.ParsedRow `json:"rows"`
	Remaining string             `json:"remaining"`
	Items     []models.BatchItem `json:"items"`
}

type wizardRequest struct {
	CampaignID string             `json:"campaignId"`
	Items      []models.BatchItem `json:"items"`
}

func namedOf[T models.Entity[T]](c *models.Collection[T], ids []string, name func(T) string) []naming.Named {
	out := make([]naming.Named, 0, len(ids))
	for _, id := range ids {
		if v, ok := c.MergedView(id); ok {
			out = append(out, naming.Named{ID: id, Name: name(v)})
		}
	}
	return out
}

// namedRows resolves ids to their current names. ok is false for an unknown grid.
func namedRows(ws *models.Workspace, grid models.Grid, ids []string) ([]naming.Named, bool) {
	switch grid {
	case models.GridCampaigns:
		return namedOf(ws.Campaigns, ids, func(c models.Campaign) string { return c.Name }), true
	case models.GridPlacements:
		return namedOf(ws.Placements, ids, func(p models.Placement) string { return p.Name }), true
	case models.GridCreatives:
		return namedOf(ws.Creatives, ids, func(c models.Creative) string { return c.Name }), true
	}
	return nil, false
}

func renameDraft(ws *models.Workspace, grid models.Grid, id, name string) (bool, error) {
	patch := models.Patch{"name": name}
	switch grid {
	case models.GridCampaigns:
		return ws.Campaigns.UpdateDraft(id, patch)
	case models.GridPlacements:
		return ws.Placements.UpdateDraft(id, patch)
	case models.GridCreatives:
		return ws.Creatives.UpdateDraft(id, patch)
	}
	return false, nil
}

func (s *Server) renames(w http.ResponseWriter, r *http.Request, sc scope) (namingRequest, []naming.Rename, bool) {
	var req namingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return req, nil, false
	}
	if err := req.Rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, nil, false
	}
	ids := req.IDs
	if len(ids) == 0 {
		if sel := sc.ws.Selection(req.Grid); sel != nil {
			ids = sel.IDs()
		}
	}
	items, ok := namedRows(sc.ws, req.Grid, ids)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown grid")
		return req, nil, false
	}
	return req, naming.PreviewRename(items, req.Rule), true
}

// PreviewNaming shows the names a rule would produce without changing anything.
func (s *Server) PreviewNaming(w http.ResponseWriter, r *http.Request, sc scope) {
	_, renames, ok := s.renames(w, r, sc)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, namingResponse{Renames: renames})
}

// ApplyNaming writes the renamed names into the drafts of the rows.
func (s *Server) ApplyNaming(w http.ResponseWriter, r *http.Request, sc scope) {
	req, renames, ok := s.renames(w, r, sc)
	if !ok {
		return
	}
	applied := make([]naming.Rename, 0, len(renames))
	for _, rn := range renames {
		changed, err := renameDraft(sc.ws, req.Grid, rn.ID, rn.NewName)
		if err != nil {
			sc.log.Warn("rename draft", zap.String("id", rn.ID), zap.Error(err))
			continue
		}
		if changed {
			applied = append(applied, rn)
		}
	}
	sc.log.Info("naming rule applied",
		zap.String("grid", string(req.Grid)),
		zap.String("mode", req.Rule.Mode),
		zap.Int("renamed", len(applied)))
	writeJSON(w, http.StatusOK, namingResponse{Renames: applied})
}

func (s *Server) vocabulary(ws *models.Workspace) naming.Vocabulary {
	sites := ws.Sites.All()
	refs := make([]naming.SiteRef, 0, len(sites))
	for _, site := range sites {
		refs = append(refs, naming.SiteRef{ID: site.ID, Name: site.Name})
	}
	tech := s.Config.TechVocabulary
	if len(tech) == 0 {
		tech = naming.DefaultTechVocabulary
	}
	return naming.Vocabulary{Sites: refs, Tech: tech}
}

// ImportText parses pasted naming lines into wizard items. Lines that could
// not be resolved come back verbatim in remaining.
func (s *Server) ImportText(w http.ResponseWriter, r *http.Request, sc scope) {
	var req importRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	var fallback *naming.SiteRef
	if req.FallbackSiteID != "" {
		site, ok := sc.ws.Sites.Get(req.FallbackSiteID)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown fallback site "+req.FallbackSiteID)
			return
		}
		fallback = &naming.SiteRef{ID: site.ID, Name: site.Name}
	}

	res := naming.ParseText(req.Text, s.vocabulary(sc.ws), fallback)
	items := wizard.FromParsed(res.Rows, wizard.Defaults{StartDate: req.StartDate, EndDate: req.EndDate})
	writeJSON(w, http.StatusOK, importResponse{
		Rows:      res.Rows,
		Remaining: res.Remaining,
		Items:     wizard.Validate(items, sc.ws.Sites.All()),
	})
}

// ApplyWizard turns valid wizard items into local placements.
func (s *Server) ApplyWizard(w http.ResponseWriter, r *http.Request, sc scope) {
	var req wizardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	res, err := wizard.Apply(sc.ws, req.CampaignID, req.Items)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc.log.Info("wizard applied",
		zap.String("campaign_id", req.CampaignID),
		zap.Int("created", len(res.Created)),
		zap.Int("kept", len(res.Kept)))
	writeJSON(w, http.StatusOK, res)
}
