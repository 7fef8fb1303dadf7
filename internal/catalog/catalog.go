// Package catalog holds the model catalog: the set of chat models the server
// exposes, loaded from an embedded YAML file at startup.
package catalog

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Model describes one selectable chat model.
type Model struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Provider    string `yaml:"provider" json:"-"`
	Upstream    string `yaml:"upstream_id" json:"-"`
	Description string `yaml:"description" json:"description"`
	Reasoning   bool   `yaml:"reasoning" json:"-"`
}

// Catalog is the immutable set of models loaded at startup. Lookup by ID is
// read-only after construction, so no locking is needed.
type Catalog struct {
	models []Model
	byID   map[string]*Model
}

// Load reads the embedded model catalog.
func Load() (*Catalog, error) {
	data, err := configFiles.ReadFile("config/models.yaml")
	if err != nil {
		return nil, fmt.Errorf("read model catalog: %w", err)
	}

	var file struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal model catalog: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("model catalog is empty")
	}

	c := &Catalog{
		models: file.Models,
		byID:   make(map[string]*Model, len(file.Models)),
	}
	for i := range c.models {
		c.byID[c.models[i].ID] = &c.models[i]
	}
	return c, nil
}

// Models returns all catalog entries in file order.
func (c *Catalog) Models() []Model {
	return c.models
}

// Get returns the model with the given ID, or nil when unknown.
func (c *Catalog) Get(id string) *Model {
	return c.byID[id]
}

// UpstreamID maps a catalog ID to the model ID the provider API accepts.
// Catalog entries are allowed to alias an upstream model (a reasoning entry
// is the base model plus a thinking config); IDs without an alias, including
// unknown ones, pass through unchanged.
func (c *Catalog) UpstreamID(id string) string {
	if m := c.byID[id]; m != nil && m.Upstream != "" {
		return m.Upstream
	}
	return id
}

// IsReasoningModel reports whether the model runs with extended thinking.
// Unknown IDs fall back to name sniffing so externally-configured models
// still route correctly.
func (c *Catalog) IsReasoningModel(id string) bool {
	if m := c.byID[id]; m != nil {
		return m.Reasoning
	}
	return strings.Contains(id, "reasoning") || strings.Contains(id, "thinking")
}
