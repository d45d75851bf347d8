package models

// Advertiser is read-only reference data fetched from CM360.
type Advertiser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsDraft bool   `json:"isDraft"`
}

func (a Advertiser) EntityID() string { return a.ID }

func (a Advertiser) WithID(id string) Advertiser { a.ID = id; return a }

func (a Advertiser) WithDraftFlag(draft bool) Advertiser { a.IsDraft = draft; return a }

// Site is reference data used to resolve a placement's site.
type Site struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IsDraft bool   `json:"isDraft"`
}

func (s Site) EntityID() string { return s.ID }

func (s Site) WithID(id string) Site { s.ID = id; return s }

func (s Site) WithDraftFlag(draft bool) Site { s.IsDraft = draft; return s }

// LandingPage is an advertiser landing page, needed to create campaigns.
type LandingPage struct {
	ID           string `json:"id"`
	AdvertiserID string `json:"advertiserId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	IsDraft      bool   `json:"isDraft"`
}

func (l LandingPage) EntityID() string { return l.ID }

func (l LandingPage) WithID(id string) LandingPage { l.ID = id; return l }

func (l LandingPage) WithDraftFlag(draft bool) LandingPage { l.IsDraft = draft; return l }
