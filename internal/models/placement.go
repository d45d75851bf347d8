package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Placement types.
const (
	PlacementDisplay = "Display"
	PlacementVideo   = "Video"
	PlacementNative  = "Native"
)

// Placement compatibilities understood by CM360.
const (
	CompatibilityDisplay       = "DISPLAY"
	CompatibilityInStreamVideo = "IN_STREAM_VIDEO"
)

// Placement statuses.
const (
	PlacementStatusActive   = "Active"
	PlacementStatusArchived = "Archived"
)

const localPlacementPrefix = "plc-"

// Placement is an ad slot (site + size + schedule) within a campaign.
//
// ID is a local temporary id (plc-...) until the placement has been created in
// CM360; afterwards ID and CMID both carry the server id.
type Placement struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaignId"`
	Name          string    `json:"name"`
	SiteID        string    `json:"siteId"`
	Size          string    `json:"size"`
	Type          string    `json:"type"`
	Compatibility string    `json:"compatibility"`
	Status        string    `json:"status,omitempty"`
	StartDate     string    `json:"startDate"`
	EndDate       string    `json:"endDate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	CMID          int64     `json:"cmId,omitempty,string"`
	ExternalURL   string    `json:"externalUrl,omitempty"`
	IsDraft       bool      `json:"isDraft"`
}

func (p Placement) EntityID() string { return p.ID }

func (p Placement) WithID(id string) Placement { p.ID = id; return p }

func (p Placement) WithDraftFlag(draft bool) Placement { p.IsDraft = draft; return p }

// PlacementState tells a placement that only exists locally apart from one
// CM360 already knows. The only implementations are Local and Remote.
type PlacementState interface {
	placementState()
}

// Local is a placement that has never been created in CM360.
type Local struct {
	TempID string
}

// Remote is a placement with a server-assigned id.
type Remote struct {
	ServerID int64
}

func (Local) placementState()  {}
func (Remote) placementState() {}

// State returns the placement's lifecycle variant.
func (p Placement) State() PlacementState {
	if p.CMID != 0 {
		return Remote{ServerID: p.CMID}
	}
	return Local{TempID: p.ID}
}

// NewLocalPlacementID returns a temporary id for a placement created locally.
func NewLocalPlacementID() string {
	return localPlacementPrefix + uuid.NewString()
}

// IsLocalPlacementID reports whether id was produced by NewLocalPlacementID.
func IsLocalPlacementID(id string) bool {
	return strings.HasPrefix(id, localPlacementPrefix)
}
