package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vulnfix/vulnfix/internal/adapters/outbound/backup"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/config"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/gitinfo"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/history"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/input"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/workspace"
	"github.com/vulnfix/vulnfix/internal/application"
	"github.com/vulnfix/vulnfix/internal/domain"
)

// registerTools registers all vulnfix MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string, log logr.Logger) {
	s.AddTool(
		mcplib.NewTool("vulnfix_fix",
			mcplib.WithDescription("Apply remediation upgrades to the project's pom.xml files and return the fix report as JSON. Runs as a dry run unless dry_run is false."),
			mcplib.WithString("input",
				mcplib.Required(),
				mcplib.Description("Path to the scanned projects file (JSON or YAML), relative to the project root"),
			),
			mcplib.WithBoolean("dry_run", mcplib.Description("Compute changes without writing (default: true)")),
		),
		handleFix(projectPath, log),
	)

	s.AddTool(
		mcplib.NewTool("vulnfix_resolve_version",
			mcplib.WithDescription("Report which declaration in a pom.xml governs a dependency's version"),
			mcplib.WithString("coordinate",
				mcplib.Required(),
				mcplib.Description("Dependency as groupId:artifactId"),
			),
			mcplib.WithString("file", mcplib.Description("Manifest path relative to the project root (default: pom.xml)")),
		),
		handleResolveVersion(projectPath),
	)

	s.AddTool(
		mcplib.NewTool("vulnfix_rollback",
			mcplib.WithDescription("Restore manifests from the backups taken before the last applied fix"),
			mcplib.WithString("files", mcplib.Description("Comma-separated manifest paths; defaults to the files changed by the last applied fix")),
		),
		handleRollback(projectPath, log),
	)
}

func handleFix(projectPath string, log logr.Logger) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		inputPath, err := request.RequireString("input")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		dryRun := true
		if v, ok := request.GetArguments()["dry_run"].(bool); ok {
			dryRun = v
		}

		root, err := filepath.Abs(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("resolving path: %v", err)), nil
		}
		if !filepath.IsAbs(inputPath) {
			inputPath = filepath.Join(root, inputPath)
		}

		ws := workspace.NewOS(root)
		cfg, err := config.New(ws.Filesystem()).Load()
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}

		entities, err := input.New().Load(inputPath, ws)
		if err != nil {
			return errorResult(fmt.Sprintf("loading input: %v", err)), nil
		}

		gi := gitinfo.New()
		svc := application.NewFixService(root, cfg, backup.New(ws.Filesystem()), gi, log)
		report := svc.Fix(entities, domain.FixOptions{DryRun: dryRun, Quiet: true})

		var hash string
		if gi.IsGitRepo(root) {
			hash, _ = gi.CommitHash(root)
		}
		application.RecordRun(history.New(ws.Filesystem()), report, hash, log)

		return jsonResult(report)
	}
}

func handleResolveVersion(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		coordinate, err := request.RequireString("coordinate")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		file, _ := request.GetArguments()["file"].(string)
		if file == "" {
			file = "pom.xml"
		}

		svc := application.NewResolveService(workspace.NewOS(projectPath))
		res, err := svc.Resolve(file, coordinate)
		if err != nil {
			return errorResult(fmt.Sprintf("resolve failed: %v", err)), nil
		}
		return jsonResult(res)
	}
}

func handleRollback(projectPath string, log logr.Logger) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		root, err := filepath.Abs(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("resolving path: %v", err)), nil
		}

		var files []string
		if s, ok := request.GetArguments()["files"].(string); ok && s != "" {
			files = splitAndTrim(s)
		}

		ws := workspace.NewOS(root)
		svc := application.NewRollbackService(ws, backup.New(ws.Filesystem()), history.New(ws.Filesystem()), log)
		result, err := svc.Rollback(files)
		if err != nil {
			return errorResult(fmt.Sprintf("rollback failed: %v", err)), nil
		}
		return jsonResult(result)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
