package main

import (
	"context"
	"testing"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/naming"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServer() *NamingServer {
	return &NamingServer{tech: naming.DefaultTechVocabulary, logger: zap.NewNop()}
}

func TestApplyNamingRule(t *testing.T) {
	_, out, err := testServer().ApplyNamingRule(context.Background(), nil, ApplyRuleInput{
		Names: []string{"banner", "video"},
		Rule:  naming.Rule{Mode: naming.ModeSuffix, Value: "Q1", Separator: "_"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"banner_Q1", "video_Q1"}, out.Names)
	require.Len(t, out.Renames, 2)
	assert.Equal(t, "1", out.Renames[1].ID)
}

func TestApplyNamingRule_RejectsUnknownMode(t *testing.T) {
	_, _, err := testServer().ApplyNamingRule(context.Background(), nil, ApplyRuleInput{
		Names: []string{"a"},
		Rule:  naming.Rule{Mode: "upper", Value: "x"},
	})
	assert.ErrorIs(t, err, naming.ErrUnknownMode)
}

func TestParseTaxonomy_Fallback(t *testing.T) {
	_, out, err := testServer().ParseTaxonomy(context.Background(), nil, ParseTaxonomyInput{
		Text:           "a_b_c_d_e_dv360_g_h_300x250\na_b_c_d_e_nosite_g_h_728x90\nno_size_here",
		Sites:          []naming.SiteRef{{ID: "20", Name: "DV360"}, {ID: "99", Name: "Default"}},
		FallbackSiteID: "99",
	})
	require.NoError(t, err)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, 2, out.Valid)
	assert.Equal(t, "20", out.Rows[0].SiteID)
	assert.Equal(t, "99", out.Rows[1].SiteID)
	assert.Equal(t, "Default", out.Rows[1].SiteName)
	assert.Equal(t, "no_size_here", out.Remaining)
}

func TestServerListsTools(t *testing.T) {
	ctx := context.Background()
	server := newServer(testServer())
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"apply_naming_rule", "parse_taxonomy"}, names)
}
