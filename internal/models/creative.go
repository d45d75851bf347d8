package models

// Creative is an uploaded ad asset. Creatives are never created or deleted by
// the dashboard; only their name and status are edited.
type Creative struct {
	ID           string   `json:"id"`
	AdvertiserID string   `json:"advertiserId"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Size         string   `json:"size,omitempty"`
	Status       string   `json:"status"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	PlacementIDs []string `json:"placementIds,omitempty"`
	ExternalURL  string   `json:"externalUrl,omitempty"`
	IsDraft      bool     `json:"isDraft"`
}

// Creative statuses.
const (
	CreativeActive   = "Active"
	CreativeInactive = "Inactive"
	CreativeArchived = "Archived"
)

func (c Creative) EntityID() string { return c.ID }

func (c Creative) WithID(id string) Creative { c.ID = id; return c }

func (c Creative) WithDraftFlag(draft bool) Creative { c.IsDraft = draft; return c }

// AdRequest is the join that links a creative to a placement inside a
// campaign. It is never stored; it only shapes an ad creation call.
type AdRequest struct {
	Name        string `json:"name"`
	CampaignID  string `json:"campaignId"`
	CreativeID  string `json:"creativeId"`
	PlacementID string `json:"placementId"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
}

// Key identifies the creative/placement pair in batch results.
func (a AdRequest) Key() string { return a.CreativeID + ":" + a.PlacementID }
