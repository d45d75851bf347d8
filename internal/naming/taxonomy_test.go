package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocabulary() Vocabulary {
	return Vocabulary{
		Sites: []SiteRef{
			{ID: "10", Name: "Google Ads"},
			{ID: "20", Name: "DV360 - Programmatic"},
			{ID: "30", Name: "The Trade Desk"},
		},
		Tech: DefaultTechVocabulary,
	}
}

func TestParseLine_Display(t *testing.T) {
	row := ParseLine("ae-de_kpi360_panama_dis_prs_dv360_desktop_gen_728x90", testVocabulary())

	assert.Equal(t, "728x90", row.Size)
	assert.Equal(t, 728, row.Width)
	assert.Equal(t, 90, row.Height)
	assert.Equal(t, TypeDisplay, row.Type)
	assert.Equal(t, CompatibilityDisplay, row.Compatibility)
	assert.Equal(t, "dv360", row.TechToken)
	assert.Equal(t, "20", row.SiteID)
	assert.Equal(t, ScoreSitePrefix, row.SiteScore)
	assert.True(t, row.Valid)
	assert.Equal(t, "ae-de_kpi360_panama_dis_prs_dv360_desktop_gen_728x90_", row.Name)
}

func TestParseLine_KeepsExistingTrailingUnderscore(t *testing.T) {
	row := ParseLine("a_b_c_d_e_dv360_g_h_300x250_", testVocabulary())
	assert.Equal(t, "a_b_c_d_e_dv360_g_h_300x250_", row.Name)
}

func TestParseLine_VideoAndNativeFormats(t *testing.T) {
	video := ParseLine("br-es_site_camp_ch_instream15_dv360_mob_vid_640x360", testVocabulary())
	assert.Equal(t, TypeVideo, video.Type)
	assert.Equal(t, CompatibilityInStreamVideo, video.Compatibility)

	native := ParseLine("br-es_site_camp_ch_native_dv360_mob_nat_1X1", testVocabulary())
	assert.Equal(t, TypeNative, native.Type)
	assert.Equal(t, CompatibilityDisplay, native.Compatibility)
	assert.Equal(t, "1x1", native.Size)
}

func TestParseLine_UnicodeSizeSeparator(t *testing.T) {
	row := ParseLine("a_b_c_d_e_tradedesk_g_h_300×600", testVocabulary())
	assert.Equal(t, "300x600", row.Size)
	assert.Equal(t, "30", row.SiteID)
}

func TestParseLine_TechFallbackScan(t *testing.T) {
	// tech position holds "mobile"; dv360 sits elsewhere in the line
	row := ParseLine("dv360_x_y_z_prs_mobile_320x50", testVocabulary())
	assert.Equal(t, "dv360", row.TechToken)
	assert.Equal(t, "20", row.SiteID)
}

func TestParseLine_MissingSizeIsInvalid(t *testing.T) {
	row := ParseLine("ae-de_kpi360_panama_dis_prs_dv360_desktop_gen", testVocabulary())
	assert.False(t, row.HasSize())
	assert.False(t, row.Valid)
}

func TestParseText_RemainingKeepsInvalidLinesVerbatim(t *testing.T) {
	bad := "  ae-de_kpi360_panama_dis_prs_dv360_desktop_gen"
	text := "ae-de_kpi360_panama_dis_prs_dv360_desktop_gen_728x90\n" + bad + "\r\n\n"

	res := ParseText(text, testVocabulary(), nil)
	require.Len(t, res.Rows, 2)
	assert.Len(t, res.Valid(), 1)
	assert.Equal(t, bad, res.Remaining)
}

func TestParseText_FallbackSiteValidatesUnresolvedRows(t *testing.T) {
	line := "a_b_c_d_e_unknownsite_g_h_300x250"
	vocab := testVocabulary()

	without := ParseText(line, vocab, nil)
	require.Len(t, without.Rows, 1)
	assert.False(t, without.Rows[0].Valid)
	assert.Equal(t, line, without.Remaining)

	with := ParseText(line, vocab, &SiteRef{ID: "99", Name: "Selected"})
	require.Len(t, with.Rows, 1)
	assert.True(t, with.Rows[0].Valid)
	assert.True(t, with.Rows[0].UsedFallback)
	assert.Equal(t, "99", with.Rows[0].SiteID)
	assert.Empty(t, with.Remaining)
}

func TestParseText_FallbackDoesNotRescueMissingSize(t *testing.T) {
	res := ParseText("a_b_c_d_e_dv360_g_h", testVocabulary(), &SiteRef{ID: "99"})
	require.Len(t, res.Rows, 1)
	assert.False(t, res.Rows[0].Valid)
}
