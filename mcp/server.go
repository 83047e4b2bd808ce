// Package mcp provides the MCP (Model Context Protocol) server for hdlscan.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hdlci/hdlscan/internal/analyzer"
	"github.com/hdlci/hdlscan/internal/buildcfg"
	"github.com/hdlci/hdlscan/internal/registry"
)

// Server represents the MCP server.
type Server struct {
	registry ResultStore
	server   *mcp.Server
}

// ResultStore defines the registry surface the server needs.
type ResultStore interface {
	Put(cfg *buildcfg.BuildConfig, meta registry.Meta) error
	Get(name string) (*buildcfg.BuildConfig, *registry.Meta, error)
	List() ([]registry.Summary, error)
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server.
func NewServer(store ResultStore) *Server {
	s := &Server{
		registry: store,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "hdlscan",
		Version: "0.1.0",
	}, nil)

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "hdlscan_analyze",
			Description: "Analyze an HDL project tree: detect dialect, build the module graph, infer the top module, and return the build configuration.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"path": {Type: "string", Description: "Project root directory"},
					"top":  {Type: "string", Description: "Explicit top module override"},
				},
				Required: []string{"path"},
			},
		},
		{
			Name:        "hdlscan_list_projects",
			Description: "List all analyzed projects stored in the registry.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "hdlscan_config",
			Description: "Return the stored build configuration for a project.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", Description: "Project name"},
				},
				Required: []string{"name"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "hdlscan://overview",
			Name:        "Registry Overview",
			Description: "Summary of all analyzed projects",
			MimeType:    "text/plain",
		},
		{
			URI:         "hdlscan://schema",
			Name:        "Build Configuration Schema",
			Description: "JSON Schema of the emitted build configuration document",
			MimeType:    "application/json",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "hdlscan_analyze":
		path, _ := args["path"].(string)
		top, _ := args["top"].(string)
		return s.handleAnalyze(ctx, path, top)
	case "hdlscan_list_projects":
		return s.handleListProjects()
	case "hdlscan_config":
		projName, _ := args["name"].(string)
		return s.handleConfig(projName)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "hdlscan://overview":
		return s.getOverview(), nil
	case "hdlscan://schema":
		data, err := json.MarshalIndent(buildcfg.Schema(), "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	// One compact JSON message per line; the transport breaks on
	// indented output.
	encoder := json.NewEncoder(stdout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "hdlscan",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

func (s *Server) handleAnalyze(ctx context.Context, path, top string) (string, error) {
	if path == "" {
		return "No project path provided", nil
	}

	cfg, report, err := analyzer.Analyze(ctx, analyzer.Options{
		Root: path,
		Top:  top,
	}, nil)
	if err != nil {
		return fmt.Sprintf("Analysis failed: %v", err), nil
	}

	if s.registry != nil {
		_ = s.registry.Put(cfg, registry.Meta{
			AnalyzedAt:   time.Now().UTC(),
			Files:        report.Files,
			Modules:      report.Modules,
			Warnings:     len(report.Warnings),
			DurationSecs: report.DurationSecs,
		})
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyzed **%s**: %d files, %d modules, top `%s`\n\n", cfg.Name, report.Files, report.Modules, cfg.TopModule))
	sb.WriteString("```json\n")
	sb.Write(data)
	sb.WriteString("\n```\n")
	for _, w := range report.Warnings {
		sb.WriteString(fmt.Sprintf("- warning: %s\n", w))
	}
	return sb.String(), nil
}

func (s *Server) handleListProjects() (string, error) {
	summaries, err := s.registry.List()
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "No analyzed projects yet. Use `hdlscan_analyze` on a project root.", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Analyzed Projects (%d)\n\n", len(summaries)))
	for _, p := range summaries {
		status := "simulable"
		if !p.IsSimulable {
			status = "degraded"
		}
		sb.WriteString(fmt.Sprintf("- **%s** (%s) top=`%s` [%s]\n", p.Name, p.Language, p.TopModule, status))
	}
	sb.WriteString("\nNext: Use `hdlscan_config` for a project's full configuration.")
	return sb.String(), nil
}

func (s *Server) handleConfig(name string) (string, error) {
	if name == "" {
		return "No project name provided", nil
	}

	cfg, _, err := s.registry.Get(name)
	if err != nil {
		return fmt.Sprintf("Project '%s' not found in registry", name), nil
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) getOverview() string {
	var sb strings.Builder
	sb.WriteString("# hdlscan Registry Overview\n\n")

	summaries, err := s.registry.List()
	if err != nil || len(summaries) == 0 {
		sb.WriteString("No analyzed projects.\n")
		return sb.String()
	}

	simulable := 0
	byLanguage := make(map[string]int)
	for _, p := range summaries {
		if p.IsSimulable {
			simulable++
		}
		byLanguage[string(p.Language)]++
	}

	sb.WriteString(fmt.Sprintf("**Projects:** %d (%d simulable, %d degraded)\n\n", len(summaries), simulable, len(summaries)-simulable))
	sb.WriteString("## By Dialect\n\n")
	for lang, n := range byLanguage {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", lang, n))
	}
	return sb.String()
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
