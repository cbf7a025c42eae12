package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Skill is one capability an agent advertises. Schemas are JSON
// Schema fragments describing inputs and outputs.
type Skill struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	InputSchema  map[string]any   `json:"input_schema"`
	OutputSchema map[string]any   `json:"output_schema,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
	Examples     []map[string]any `json:"examples,omitempty"`
}

// Card is a self-describing document an agent publishes at a
// well-known URL so other agents can discover its capabilities
// without prior coordination.
type Card struct {
	AgentID          string    `json:"agent_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	ServiceEndpoint  string    `json:"service_endpoint"`
	ProtocolVersion  string    `json:"protocol_version"`
	Skills           []Skill   `json:"skills"`
	Provider         string    `json:"provider,omitempty"`
	DocumentationURL string    `json:"documentation_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToJSON serializes the card for publishing
func (c *Card) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent card: %w", err)
	}
	return data, nil
}

// ParseCard reads a published agent card
func ParseCard(data []byte) (*Card, error) {
	var card Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("failed to parse agent card: %w", err)
	}
	return &card, nil
}

// FindSkill returns the skill with the given name, or nil
func (c *Card) FindSkill(name string) *Skill {
	for i := range c.Skills {
		if c.Skills[i].Name == name {
			return &c.Skills[i]
		}
	}
	return nil
}

// MatchCapability returns skills whose name, description, or tags
// contain the query, case-insensitively. Production discovery would
// use embeddings; keyword matching keeps the card self-contained.
func (c *Card) MatchCapability(query string) []Skill {
	query = strings.ToLower(query)
	var matches []Skill
	for _, skill := range c.Skills {
		if strings.Contains(strings.ToLower(skill.Name), query) ||
			strings.Contains(strings.ToLower(skill.Description), query) {
			matches = append(matches, skill)
			continue
		}
		for _, tag := range skill.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				matches = append(matches, skill)
				break
			}
		}
	}
	return matches
}
