package publish

import "github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"

// reconcilePlacement lays the server's answer over the published view. Fields
// CM360 does not echo keep their local values.
func reconcilePlacement(local, server models.Placement) models.Placement {
	out := local
	out.IsDraft = false
	if server.CMID != 0 {
		out.CMID = server.CMID
		out.ID = server.ID
	}
	if server.Name != "" {
		out.Name = server.Name
	}
	if server.CampaignID != "" {
		out.CampaignID = server.CampaignID
	}
	if server.SiteID != "" {
		out.SiteID = server.SiteID
	}
	if server.Size != "" {
		out.Size = server.Size
	}
	if server.Compatibility != "" {
		out.Compatibility = server.Compatibility
	}
	// CM360 cannot tell native from display; only trust it for video
	if server.Type == models.PlacementVideo {
		out.Type = server.Type
	}
	if server.Status != "" {
		out.Status = server.Status
	}
	if server.StartDate != "" {
		out.StartDate = server.StartDate
	}
	if server.EndDate != "" {
		out.EndDate = server.EndDate
	}
	if !server.CreatedAt.IsZero() {
		out.CreatedAt = server.CreatedAt
	}
	if !server.UpdatedAt.IsZero() {
		out.UpdatedAt = server.UpdatedAt
	}
	if server.ExternalURL != "" {
		out.ExternalURL = server.ExternalURL
	}
	return out
}

func reconcileCampaign(local, server models.Campaign) models.Campaign {
	out := local
	out.IsDraft = false
	if server.CMID != 0 {
		out.CMID = server.CMID
		out.ID = server.ID
	}
	if server.Name != "" {
		out.Name = server.Name
	}
	if server.AdvertiserID != "" {
		out.AdvertiserID = server.AdvertiserID
	}
	if server.StartDate != "" {
		out.StartDate = server.StartDate
	}
	if server.EndDate != "" {
		out.EndDate = server.EndDate
	}
	if server.Status != "" {
		out.Status = server.Status
	}
	if server.DefaultLandingPageID != "" {
		out.DefaultLandingPageID = server.DefaultLandingPageID
	}
	if !server.UpdatedAt.IsZero() {
		out.UpdatedAt = server.UpdatedAt
	}
	return out
}

func reconcileCreative(local, server models.Creative) models.Creative {
	out := local
	out.IsDraft = false
	if server.Name != "" {
		out.Name = server.Name
	}
	if server.Status != "" {
		out.Status = server.Status
	}
	if server.Size != "" {
		out.Size = server.Size
	}
	if server.ExternalURL != "" {
		out.ExternalURL = server.ExternalURL
	}
	return out
}
