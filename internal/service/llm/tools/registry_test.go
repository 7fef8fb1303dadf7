package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	domainllm "skiff/internal/domain/services/llm"
)

// mockTool is a test implementation of Tool.
type mockTool struct {
	name       string
	shouldFail bool
}

func (m *mockTool) Definition() domainllm.ToolDefinition {
	return domainllm.ToolDefinition{
		Name:        m.name,
		Description: "test tool",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}
}

func (m *mockTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if m.shouldFail {
		return nil, errors.New("mock tool failed")
	}
	return map[string]string{"tool": m.name}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	tool := &mockTool{name: "test_tool"}

	registry.Register(tool)

	if got := registry.Get("test_tool"); got != tool {
		t.Error("Get returned different tool instance")
	}
	if got := registry.Get("non_existent"); got != nil {
		t.Error("Get returned non-nil for unregistered tool")
	}
}

func TestRegistry_DefinitionsInRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockTool{name: "b_tool"})
	registry.Register(&mockTool{name: "a_tool"})

	defs := registry.Definitions()
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	if defs[0].Name != "b_tool" || defs[1].Name != "a_tool" {
		t.Errorf("definitions out of registration order: %s, %s", defs[0].Name, defs[1].Name)
	}
}

func TestRegistry_Execute(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockTool{name: "ok_tool"})
	registry.Register(&mockTool{name: "bad_tool", shouldFail: true})

	ctx := context.Background()

	result := registry.Execute(ctx, domainllm.ToolCall{Name: "ok_tool", Input: json.RawMessage(`{}`)})
	if !strings.Contains(string(result), "ok_tool") {
		t.Errorf("unexpected result: %s", result)
	}

	result = registry.Execute(ctx, domainllm.ToolCall{Name: "bad_tool", Input: json.RawMessage(`{}`)})
	if !strings.Contains(string(result), "mock tool failed") {
		t.Errorf("tool failure should surface in payload: %s", result)
	}

	result = registry.Execute(ctx, domainllm.ToolCall{Name: "missing", Input: json.RawMessage(`{}`)})
	if !strings.Contains(string(result), "unknown tool") {
		t.Errorf("unknown tool should surface in payload: %s", result)
	}
}

func TestParseSuggestionList(t *testing.T) {
	raw := "Here are my suggestions:\n```json\n[{\"originalText\":\"teh\",\"suggestedText\":\"the\",\"description\":\"typo\"}]\n```"
	items, err := parseSuggestionList(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 1 || items[0].SuggestedText != "the" {
		t.Errorf("items = %+v", items)
	}

	if _, err := parseSuggestionList("no json here"); err == nil {
		t.Error("expected error for response without array")
	}
}
