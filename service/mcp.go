package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/formfill/store"
)

// RegisterMCP registers the formfill tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerRunTool(srv)
	s.registerPingTool(srv)
	s.registerRulesListTool(srv)
	s.registerRulesSetTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}

func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func errResult(err error) (*mcp.CallToolResult, error) {
	var res mcp.CallToolResult
	res.SetError(errors.New(err.Error()))
	return &res, nil
}

type runRequest struct {
	URL    string `json:"url"`
	DryRun *bool  `json:"dry_run,omitempty"`
}

func (s *Service) registerRunTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "formfill_run",
		Description: "Run an autofill pass over a page: classify its form fields and inject the stored profile values. Returns per-context reports.",
		InputSchema: inputSchema(map[string]any{
			"url":     map[string]any{"type": "string", "description": "Page URL to open and fill"},
			"dry_run": map[string]any{"type": "boolean", "description": "Compute the assignment without writing"},
		}, []string{"url"}),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r runRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return errResult(err)
		}
		sum, err := s.RunURL(ctx, r.URL, Overrides{DryRun: r.DryRun})
		if err != nil {
			return errResult(err)
		}
		return textResult(sum)
	})
}

func (s *Service) registerPingTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "formfill_ping",
		Description: "Liveness check: acknowledges that the formfill service is reachable.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.Ping(ctx); err != nil {
			return errResult(err)
		}
		return textResult(map[string]string{"status": "ok"})
	})
}

func (s *Service) registerRulesListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "formfill_rules_list",
		Description: "List the stored per-domain autofill rules.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rules, err := s.store.Rules()
		if err != nil {
			return errResult(err)
		}
		return textResult(rules)
	})
}

func (s *Service) registerRulesSetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "formfill_rules_set",
		Description: "Create or replace the autofill rule for a domain: enabled/disabled field types and custom selector mappings.",
		InputSchema: inputSchema(map[string]any{
			"domain":         map[string]any{"type": "string", "description": "Domain the rule applies to"},
			"enabledTypes":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Allow-list of field types; empty = all"},
			"disabledTypes":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Field types never filled on this domain"},
			"customMap":      map[string]any{"type": "object", "description": "fieldType → selector hint overrides"},
		}, []string{"domain"}),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var rule store.Rule
		if err := json.Unmarshal(req.Params.Arguments, &rule); err != nil {
			return errResult(err)
		}
		if err := s.store.PutRule(rule); err != nil {
			return errResult(err)
		}
		return textResult(map[string]string{"status": "saved"})
	})
}
