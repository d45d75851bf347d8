package cm360

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
)

// maxPages stops a listing whose page tokens never run out.
const maxPages = 200

// listAll follows nextPageToken until the listing is exhausted and returns
// the decoded items found under key.
func listAll[W any](ctx context.Context, c *Client, op, token, path string, query url.Values, key string) ([]W, error) {
	var out []W
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	seen := map[string]bool{}
	for page := 0; page < maxPages; page++ {
		var body map[string]json.RawMessage
		if err := c.do(ctx, op, token, http.MethodGet, path, q, nil, &body); err != nil {
			return nil, err
		}
		if raw, ok := body[key]; ok && len(raw) > 0 {
			var items []W
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			out = append(out, items...)
		}
		var next string
		if raw, ok := body["nextPageToken"]; ok {
			_ = json.Unmarshal(raw, &next)
		}
		if next == "" || seen[next] {
			return out, nil
		}
		seen[next] = true
		q.Set("pageToken", next)
	}
	return out, nil
}

// ListUserProfiles returns the CM360 profiles reachable with token.
func (c *Client) ListUserProfiles(ctx context.Context, token string) ([]UserProfile, error) {
	return listAll[UserProfile](ctx, c, "list_userprofiles", token, "/userprofiles", nil, "items")
}

// ListAdvertisers returns every advertiser visible to the profile.
func (s *Session) ListAdvertisers(ctx context.Context) ([]models.Advertiser, error) {
	items, err := listAll[wireAdvertiser](ctx, s.client, "list_advertisers", s.token, s.path("advertisers"), nil, "advertisers")
	if err != nil {
		return nil, err
	}
	out := make([]models.Advertiser, 0, len(items))
	for _, w := range items {
		out = append(out, models.Advertiser{ID: idString(w.ID), Name: w.Name})
	}
	return out, nil
}

// ListCampaigns returns the campaigns of one advertiser.
func (s *Session) ListCampaigns(ctx context.Context, advertiserID string) ([]models.Campaign, error) {
	q := url.Values{"advertiserIds": {advertiserID}}
	items, err := listAll[wireCampaign](ctx, s.client, "list_campaigns", s.token, s.path("campaigns"), q, "campaigns")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]models.Campaign, 0, len(items))
	for _, w := range items {
		out = append(out, toCampaign(w, now))
	}
	return out, nil
}

// ListPlacements returns the placements of one campaign.
func (s *Session) ListPlacements(ctx context.Context, campaignID string) ([]models.Placement, error) {
	q := url.Values{"campaignIds": {campaignID}}
	items, err := listAll[wirePlacement](ctx, s.client, "list_placements", s.token, s.path("placements"), q, "placements")
	if err != nil {
		return nil, err
	}
	out := make([]models.Placement, 0, len(items))
	for _, w := range items {
		out = append(out, s.toPlacement(w))
	}
	return out, nil
}

// ListSites returns the sites available to the profile.
func (s *Session) ListSites(ctx context.Context) ([]models.Site, error) {
	items, err := listAll[wireSite](ctx, s.client, "list_sites", s.token, s.path("sites"), nil, "sites")
	if err != nil {
		return nil, err
	}
	out := make([]models.Site, 0, len(items))
	for _, w := range items {
		out = append(out, models.Site{ID: idString(w.ID), Name: w.Name})
	}
	return out, nil
}

// ListCreatives returns the creatives of one advertiser.
func (s *Session) ListCreatives(ctx context.Context, advertiserID string) ([]models.Creative, error) {
	q := url.Values{"advertiserId": {advertiserID}}
	items, err := listAll[wireCreative](ctx, s.client, "list_creatives", s.token, s.path("creatives"), q, "creatives")
	if err != nil {
		return nil, err
	}
	out := make([]models.Creative, 0, len(items))
	for _, w := range items {
		out = append(out, s.toCreative(w))
	}
	return out, nil
}

// ListLandingPages returns the landing pages of one advertiser.
func (s *Session) ListLandingPages(ctx context.Context, advertiserID string) ([]models.LandingPage, error) {
	q := url.Values{"advertiserIds": {advertiserID}}
	items, err := listAll[wireLandingPage](ctx, s.client, "list_landing_pages", s.token, s.path("advertiserLandingPages"), q, "landingPages")
	if err != nil {
		return nil, err
	}
	out := make([]models.LandingPage, 0, len(items))
	for _, w := range items {
		out = append(out, models.LandingPage{
			ID:           idString(w.ID),
			AdvertiserID: idString(w.AdvertiserID),
			Name:         w.Name,
			URL:          w.URL,
		})
	}
	return out, nil
}
