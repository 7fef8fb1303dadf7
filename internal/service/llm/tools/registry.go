// Package tools implements the tools the model may call during a chat turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	domainllm "skiff/internal/domain/services/llm"
)

// Tool is a single capability exposed to the model.
type Tool interface {
	// Definition describes the tool to the provider.
	Definition() domainllm.ToolDefinition

	// Execute runs the tool with the decoded arguments and returns a
	// JSON-serializable result.
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// Registry manages tool implementations. It is thread-safe and can be used
// concurrently.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry. A tool with the same name is
// replaced.
func (r *Registry) Register(tool Tool) {
	name := tool.Definition().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Get retrieves a tool by name. Returns nil if the tool is not registered.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns tool definitions in registration order.
func (r *Registry) Definitions() []domainllm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]domainllm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute runs the named tool and returns its result marshaled as JSON.
// Tool failures come back as an error payload rather than an error return,
// so the model can see what went wrong and carry on.
func (r *Registry) Execute(ctx context.Context, call domainllm.ToolCall) json.RawMessage {
	tool := r.Get(call.Name)
	if tool == nil {
		return errorPayload(fmt.Sprintf("unknown tool: %s", call.Name))
	}

	result, err := tool.Execute(ctx, call.Input)
	if err != nil {
		return errorPayload(err.Error())
	}

	data, err := json.Marshal(result)
	if err != nil {
		return errorPayload(fmt.Sprintf("failed to encode tool result: %v", err))
	}
	return data
}

func errorPayload(msg string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}
