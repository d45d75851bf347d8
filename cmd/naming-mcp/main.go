package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/config"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/naming"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type ApplyRuleInput struct {
	Names []string    `json:"names" jsonschema:"entity names to rename"`
	Rule  naming.Rule `json:"rule" jsonschema:"prefix, suffix or replace rule"`
}

type ApplyRuleOutput struct {
	Names   []string        `json:"names"`
	Renames []naming.Rename `json:"renames"`
}

type ParseTaxonomyInput struct {
	Text           string           `json:"text" jsonschema:"pasted placement names, one per line"`
	Sites          []naming.SiteRef `json:"sites,omitempty" jsonschema:"sites to resolve the tech token against"`
	FallbackSiteID string           `json:"fallback_site_id,omitempty" jsonschema:"site used for rows whose site could not be resolved"`
}

type ParseTaxonomyOutput struct {
	Rows      []naming.ParsedRow `json:"rows"`
	Remaining string             `json:"remaining"`
	Valid     int                `json:"valid"`
}

// NamingServer exposes the naming engine as MCP tools.
type NamingServer struct {
	tech   []string
	logger *zap.Logger
}

// ApplyNamingRule previews a rule over a list of names.
func (s *NamingServer) ApplyNamingRule(ctx context.Context, req *mcp.CallToolRequest, input ApplyRuleInput) (*mcp.CallToolResult, ApplyRuleOutput, error) {
	if err := input.Rule.Validate(); err != nil {
		return nil, ApplyRuleOutput{}, err
	}
	out := ApplyRuleOutput{Names: make([]string, len(input.Names))}
	items := make([]naming.Named, len(input.Names))
	for i, name := range input.Names {
		out.Names[i] = naming.ApplyRule(name, input.Rule)
		items[i] = naming.Named{ID: fmt.Sprint(i), Name: name}
	}
	out.Renames = naming.PreviewRename(items, input.Rule)
	s.logger.Debug("applied naming rule",
		zap.String("mode", input.Rule.Mode),
		zap.Int("names", len(input.Names)),
		zap.Int("renamed", len(out.Renames)))
	return nil, out, nil
}

// ParseTaxonomy parses pasted naming lines.
func (s *NamingServer) ParseTaxonomy(ctx context.Context, req *mcp.CallToolRequest, input ParseTaxonomyInput) (*mcp.CallToolResult, ParseTaxonomyOutput, error) {
	var fallback *naming.SiteRef
	if input.FallbackSiteID != "" {
		fallback = &naming.SiteRef{ID: input.FallbackSiteID}
		for _, site := range input.Sites {
			if site.ID == input.FallbackSiteID {
				fallback.Name = site.Name
				break
			}
		}
	}
	res := naming.ParseText(input.Text, naming.Vocabulary{Sites: input.Sites, Tech: s.tech}, fallback)
	return nil, ParseTaxonomyOutput{Rows: res.Rows, Remaining: res.Remaining, Valid: len(res.Valid())}, nil
}

func newServer(ns *NamingServer) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "cm360-naming",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_naming_rule",
		Description: "Apply a prefix, suffix or replace naming rule to CM360 entity names",
	}, ns.ApplyNamingRule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_taxonomy",
		Description: "Parse taxonomy placement names into size, format and site",
	}, ns.ParseTaxonomy)

	return server
}

func main() {
	cfg := config.Load()

	// stdout carries the protocol
	logger, err := observability.InitStderrLogger(cfg.ServiceName + "-naming-mcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	tech := cfg.TechVocabulary
	if len(tech) == 0 {
		tech = naming.DefaultTechVocabulary
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := newServer(&NamingServer{tech: tech, logger: logger})
	logger.Info("naming MCP server running via stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}
