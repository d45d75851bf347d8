package models

import "sync"

// Grid names the dashboard tables that keep a row selection.
type Grid string

const (
	GridCampaigns  Grid = "campaigns"
	GridPlacements Grid = "placements"
	GridCreatives  Grid = "creatives"
)

// Workspace is one operator's view of CM360: fetched entities, their drafts
// and grid selections. It is passed explicitly to every component that reads
// or writes it.
type Workspace struct {
	Advertisers  *Collection[Advertiser]
	Campaigns    *Collection[Campaign]
	Placements   *Collection[Placement]
	Creatives    *Collection[Creative]
	Sites        *Collection[Site]
	LandingPages *Collection[LandingPage]

	selections map[Grid]*Selection
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		Advertisers:  NewCollection[Advertiser](),
		Campaigns:    NewCollection[Campaign](),
		Placements:   NewCollection[Placement](),
		Creatives:    NewCollection[Creative](),
		Sites:        NewCollection[Site](),
		LandingPages: NewCollection[LandingPage](),
		selections: map[Grid]*Selection{
			GridCampaigns:  {},
			GridPlacements: {},
			GridCreatives:  {},
		},
	}
}

// Selection returns the selection of grid g, or nil for an unknown grid.
func (w *Workspace) Selection(g Grid) *Selection {
	return w.selections[g]
}

// WorkspaceRegistry hands out one workspace per session.
type WorkspaceRegistry struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewWorkspaceRegistry creates an empty registry.
func NewWorkspaceRegistry() *WorkspaceRegistry {
	return &WorkspaceRegistry{workspaces: make(map[string]*Workspace)}
}

// Get returns the workspace for sessionID, creating it on first use.
func (r *WorkspaceRegistry) Get(sessionID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[sessionID]
	if !ok {
		ws = NewWorkspace()
		r.workspaces[sessionID] = ws
	}
	return ws
}

// Drop forgets the workspace of sessionID.
func (r *WorkspaceRegistry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, sessionID)
}
