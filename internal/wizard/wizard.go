// Package wizard turns pasted or typed rows into local placements.
package wizard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/naming"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var sizeRe = regexp.MustCompile(`^\d+x\d+$`)

// ErrUnknownCampaign is returned by Apply when the target campaign is not loaded.
var ErrUnknownCampaign = errors.New("unknown campaign")

// Defaults fill fields the pasted text does not carry.
type Defaults struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// FromParsed builds batch items from the valid parsed rows. Invalid rows stay
// with the caller for correction.
func FromParsed(rows []naming.ParsedRow, d Defaults) []models.BatchItem {
	items := make([]models.BatchItem, 0, len(rows))
	for _, row := range rows {
		if !row.Valid {
			continue
		}
		items = append(items, models.BatchItem{
			ID:        uuid.NewString(),
			Name:      row.Name,
			SiteID:    row.SiteID,
			Size:      row.Size,
			Type:      row.Type,
			StartDate: d.StartDate,
			EndDate:   d.EndDate,
			Errors:    []string{},
		})
	}
	return items
}

// Validate returns copies of items with Errors describing what blocks creation.
func Validate(items []models.BatchItem, sites []models.Site) []models.BatchItem {
	known := make(map[string]bool, len(sites))
	for _, s := range sites {
		known[s.ID] = true
	}

	out := make([]models.BatchItem, len(items))
	for i, it := range items {
		it.Errors = []string{}
		if strings.TrimSpace(it.Name) == "" {
			it.Errors = append(it.Errors, "name is required")
		}
		switch {
		case it.SiteID == "":
			it.Errors = append(it.Errors, "site is required")
		case !known[it.SiteID]:
			it.Errors = append(it.Errors, fmt.Sprintf("site %s is unknown", it.SiteID))
		}
		if !sizeRe.MatchString(strings.ToLower(it.Size)) {
			it.Errors = append(it.Errors, "size must look like 300x250")
		}
		start, serr := time.Parse(dateLayout, it.StartDate)
		if serr != nil {
			it.Errors = append(it.Errors, "start date must be YYYY-MM-DD")
		}
		end, eerr := time.Parse(dateLayout, it.EndDate)
		if eerr != nil {
			it.Errors = append(it.Errors, "end date must be YYYY-MM-DD")
		}
		if serr == nil && eerr == nil && end.Before(start) {
			it.Errors = append(it.Errors, "end date is before start date")
		}
		switch it.Type {
		case "", models.PlacementDisplay, models.PlacementVideo, models.PlacementNative:
		default:
			it.Errors = append(it.Errors, fmt.Sprintf("type %q is not supported", it.Type))
		}
		out[i] = it
	}
	return out
}

// Applied reports what Apply did.
type Applied struct {
	Created []string           `json:"created"`
	Kept    []models.BatchItem `json:"kept"`
}

// Apply validates items against the workspace sites and adds a local
// placement with a temporary id for each item without errors. Items with
// errors are returned in Kept.
func Apply(ws *models.Workspace, campaignID string, items []models.BatchItem) (Applied, error) {
	if !ws.Campaigns.Has(campaignID) {
		return Applied{}, fmt.Errorf("%w: %s", ErrUnknownCampaign, campaignID)
	}

	res := Applied{Created: []string{}, Kept: []models.BatchItem{}}
	now := time.Now().UTC()
	for _, it := range Validate(items, ws.Sites.All()) {
		if !it.OK() {
			res.Kept = append(res.Kept, it)
			continue
		}
		typ := it.Type
		if typ == "" {
			typ = models.PlacementDisplay
		}
		compat := models.CompatibilityDisplay
		if typ == models.PlacementVideo {
			compat = models.CompatibilityInStreamVideo
		}
		p := models.Placement{
			ID:            models.NewLocalPlacementID(),
			CampaignID:    campaignID,
			Name:          it.Name,
			SiteID:        it.SiteID,
			Size:          strings.ToLower(it.Size),
			Type:          typ,
			Compatibility: compat,
			Status:        models.PlacementStatusActive,
			StartDate:     it.StartDate,
			EndDate:       it.EndDate,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := ws.Placements.AddLocal(p); err != nil {
			it.Errors = append(it.Errors, err.Error())
			res.Kept = append(res.Kept, it)
			continue
		}
		res.Created = append(res.Created, p.ID)
	}
	return res, nil
}
