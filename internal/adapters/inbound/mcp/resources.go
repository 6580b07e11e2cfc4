package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vulnfix/vulnfix/internal/adapters/outbound/config"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/history"
	"github.com/vulnfix/vulnfix/internal/domain"
)

// registerResources registers all vulnfix MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string) {
	s.AddResource(
		mcplib.NewResource(
			"vulnfix://config",
			"Configuration",
			mcplib.WithResourceDescription("Effective .vulnfix.yaml configuration for the project"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(projectPath),
	)

	s.AddResource(
		mcplib.NewResource(
			"vulnfix://history",
			"Fix History",
			mcplib.WithResourceDescription("Previous fix runs recorded for the project"),
			mcplib.WithMIMEType("application/json"),
		),
		handleHistoryResource(projectPath),
	)
}

func handleConfigResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := config.New(osfs.New(projectPath)).Load()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		view := struct {
			domain.ProjectConfig
			EffectiveTip  string `json:"effective_tip"`
			BackupEnabled bool   `json:"backup_enabled"`
		}{cfg, cfg.EffectiveTip(), cfg.BackupEnabled()}

		return jsonResource("vulnfix://config", view)
	}
}

func handleHistoryResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		entries, err := history.New(osfs.New(projectPath)).Load()
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		if entries == nil {
			entries = []domain.FixEntry{}
		}
		return jsonResource("vulnfix://history", entries)
	}
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
