package models

// BatchItem is a row of the bulk placement creation wizard. It lives only for
// the duration of the wizard and is turned into a local placement on apply.
type BatchItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	SiteID    string   `json:"siteId"`
	Size      string   `json:"size"`
	Type      string   `json:"type,omitempty"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Errors    []string `json:"errors"`
}

// OK reports whether validation left the item without errors.
func (b BatchItem) OK() bool { return len(b.Errors) == 0 }
