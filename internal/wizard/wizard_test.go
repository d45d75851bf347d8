package wizard

import (
	"testing"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workspace(t *testing.T) *models.Workspace {
	t.Helper()
	ws := models.NewWorkspace()
	ws.Campaigns.Load([]models.Campaign{{ID: "9", CMID: 9, Name: "c"}})
	ws.Sites.Load([]models.Site{{ID: "20", Name: "DV360"}, {ID: "30", Name: "Meta"}})
	return ws
}

func TestFromParsedKeepsOnlyValidRows(t *testing.T) {
	vocab := naming.Vocabulary{Sites: []naming.SiteRef{{ID: "20", Name: "DV360"}}, Tech: naming.DefaultTechVocabulary}
	res := naming.ParseText("a_b_c_d_vid_dv360_g_h_640x360\na_b_c_d_e_dv360_g_h", vocab, nil)

	items := FromParsed(res.Rows, Defaults{StartDate: "2026-01-01", EndDate: "2026-02-01"})
	require.Len(t, items, 1)
	assert.Equal(t, "20", items[0].SiteID)
	assert.Equal(t, "640x360", items[0].Size)
	assert.Equal(t, models.PlacementVideo, items[0].Type)
	assert.Equal(t, "2026-01-01", items[0].StartDate)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, "a_b_c_d_e_dv360_g_h", res.Remaining)
}

func TestValidate(t *testing.T) {
	sites := []models.Site{{ID: "20"}}
	items := Validate([]models.BatchItem{
		{Name: "ok", SiteID: "20", Size: "300x250", StartDate: "2026-01-01", EndDate: "2026-01-31"},
		{Name: " ", SiteID: "99", Size: "300", StartDate: "2026-02-01", EndDate: "2026-01-01", Type: "Audio"},
		{Name: "nodates", SiteID: "20", Size: "1x1"},
	}, sites)

	assert.True(t, items[0].OK())
	assert.ElementsMatch(t, []string{
		"name is required",
		"site 99 is unknown",
		"size must look like 300x250",
		"end date is before start date",
		`type "Audio" is not supported`,
	}, items[1].Errors)
	assert.ElementsMatch(t, []string{"start date must be YYYY-MM-DD", "end date must be YYYY-MM-DD"}, items[2].Errors)
}

func TestApplyCreatesLocalDraftPlacements(t *testing.T) {
	ws := workspace(t)
	res, err := Apply(ws, "9", []models.BatchItem{
		{Name: "good", SiteID: "20", Size: "300X250", Type: models.PlacementVideo, StartDate: "2026-01-01", EndDate: "2026-01-31"},
		{Name: "bad", SiteID: "", Size: "300x250", StartDate: "2026-01-01", EndDate: "2026-01-31"},
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	require.Len(t, res.Kept, 1)
	assert.Equal(t, "bad", res.Kept[0].Name)

	id := res.Created[0]
	assert.True(t, models.IsLocalPlacementID(id))
	assert.True(t, ws.Placements.HasDraft(id))
	p, ok := ws.Placements.MergedView(id)
	require.True(t, ok)
	assert.True(t, p.IsDraft)
	assert.Equal(t, "300x250", p.Size)
	assert.Equal(t, models.CompatibilityInStreamVideo, p.Compatibility)
	assert.Equal(t, "9", p.CampaignID)
}

func TestApplyUnknownCampaign(t *testing.T) {
	_, err := Apply(workspace(t), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownCampaign)
}
