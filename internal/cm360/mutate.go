package cm360

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
)

func idQuery(id int64) url.Values {
	return url.Values{"id": {strconv.FormatInt(id, 10)}}
}

// InsertPlacement creates p in CM360 and returns the server's version.
func (s *Session) InsertPlacement(ctx context.Context, p models.Placement) (models.Placement, error) {
	body, err := placementCreateBody(p)
	if err != nil {
		return models.Placement{}, err
	}
	var out wirePlacement
	if err := s.client.do(ctx, "insert_placement", s.token, http.MethodPost, s.path("placements"), nil, body, &out); err != nil {
		return models.Placement{}, err
	}
	return s.toPlacement(out), nil
}

// PatchPlacement updates the placement with server id serverID.
func (s *Session) PatchPlacement(ctx context.Context, serverID int64, p models.Placement) (models.Placement, error) {
	body, err := placementPatchBody(p)
	if err != nil {
		return models.Placement{}, err
	}
	var out wirePlacement
	if err := s.client.do(ctx, "patch_placement", s.token, http.MethodPatch, s.path("placements"), idQuery(serverID), body, &out); err != nil {
		return models.Placement{}, err
	}
	return s.toPlacement(out), nil
}

// InsertCampaign creates c in CM360.
func (s *Session) InsertCampaign(ctx context.Context, c models.Campaign) (models.Campaign, error) {
	body, err := campaignCreateBody(c)
	if err != nil {
		return models.Campaign{}, err
	}
	var out wireCampaign
	if err := s.client.do(ctx, "insert_campaign", s.token, http.MethodPost, s.path("campaigns"), nil, body, &out); err != nil {
		return models.Campaign{}, err
	}
	return toCampaign(out, time.Now().UTC()), nil
}

// PatchCampaign updates the campaign with server id serverID.
func (s *Session) PatchCampaign(ctx context.Context, serverID int64, c models.Campaign) (models.Campaign, error) {
	var out wireCampaign
	if err := s.client.do(ctx, "patch_campaign", s.token, http.MethodPatch, s.path("campaigns"), idQuery(serverID), campaignPatchBody(c), &out); err != nil {
		return models.Campaign{}, err
	}
	return toCampaign(out, time.Now().UTC()), nil
}

// PatchCreative updates name and status of a creative.
func (s *Session) PatchCreative(ctx context.Context, c models.Creative) (models.Creative, error) {
	serverID, err := parseID("creative id", c.ID)
	if err != nil {
		return models.Creative{}, err
	}
	body := creativePatchBody(c)
	if c.AdvertiserID != "" {
		if body.AdvertiserID, err = parseID("advertiser id", c.AdvertiserID); err != nil {
			return models.Creative{}, err
		}
	}
	var out wireCreative
	if err := s.client.do(ctx, "patch_creative", s.token, http.MethodPatch, s.path("creatives"), idQuery(serverID), body, &out); err != nil {
		return models.Creative{}, err
	}
	return s.toCreative(out), nil
}

// InsertAd creates the ad linking one creative to one placement.
func (s *Session) InsertAd(ctx context.Context, a models.AdRequest) (Ad, error) {
	body, err := adBody(a)
	if err != nil {
		return Ad{}, err
	}
	var out wireAd
	if err := s.client.do(ctx, "insert_ad", s.token, http.MethodPost, s.path("ads"), nil, body, &out); err != nil {
		return Ad{}, err
	}
	return Ad{
		ID:          idString(out.ID),
		Name:        out.Name,
		CampaignID:  idString(out.CampaignID),
		CreativeID:  a.CreativeID,
		PlacementID: a.PlacementID,
	}, nil
}
