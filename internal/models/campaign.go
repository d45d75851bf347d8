package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses shown in the dashboard. CM360 itself only knows whether a
// campaign is archived; Draft marks a campaign that exists only locally.
const (
	CampaignActive    = "Active"
	CampaignPaused    = "Paused"
	CampaignDraft     = "Draft"
	CampaignCompleted = "Completed"
)

// Campaign is a CM360 campaign owned by one advertiser.
type Campaign struct {
	ID           string `json:"id"`
	AdvertiserID string `json:"advertiserId"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	// StartDate and EndDate use CM360's YYYY-MM-DD format.
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Budget    float64 `json:"budget,omitempty"`
	Objective string  `json:"objective,omitempty"`
	// DefaultLandingPageID is required by CM360 when a campaign is created.
	DefaultLandingPageID string    `json:"defaultLandingPageId,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt"`
	// CMID is the server-assigned id; zero until the campaign is published.
	CMID    int64 `json:"cmId,omitempty,string"`
	IsDraft bool  `json:"isDraft"`
}

func (c Campaign) EntityID() string { return c.ID }

func (c Campaign) WithID(id string) Campaign { c.ID = id; return c }

func (c Campaign) WithDraftFlag(draft bool) Campaign { c.IsDraft = draft; return c }

// Published reports whether the campaign exists in CM360.
func (c Campaign) Published() bool { return c.CMID != 0 }

// NewLocalCampaignID returns a temporary id for a campaign created locally.
func NewLocalCampaignID() string {
	return "cmp-" + uuid.NewString()
}
