package mcp

import (
	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/server"
)

// NewVulnfixMCPServer creates a new MCP server with all vulnfix tools and
// resources registered. The projectPath is the root directory target files
// are resolved against.
func NewVulnfixMCPServer(projectPath string, log logr.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"vulnfix",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath, log)
	registerResources(s, projectPath)

	return s
}
