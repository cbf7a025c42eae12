package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Entity is a node in the knowledge graph
type Entity struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

// Relationship is a typed, directed edge between two entities.
// ValidFrom/ValidTo bound the time range in which the relationship holds;
// zero values mean unbounded.
type Relationship struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	ValidFrom  time.Time      `json:"valid_from,omitempty"`
	ValidTo    time.Time      `json:"valid_to,omitempty"`
}

// ValidAt reports whether the relationship was valid at the given time
func (r Relationship) ValidAt(t time.Time) bool {
	if !r.ValidFrom.IsZero() && t.Before(r.ValidFrom) {
		return false
	}
	if !r.ValidTo.IsZero() && t.After(r.ValidTo) {
		return false
	}
	return true
}

// Graph is an in-memory knowledge graph supporting pattern-constrained
// multi-hop traversal, BFS shortest path, neighborhood expansion and
// temporal queries. It is safe for concurrent use.
type Graph struct {
	mu            sync.RWMutex
	entities      map[string]Entity
	relationships map[string]Relationship

	// Indexes for fast lookup
	outgoing  map[string][]string // entity ID -> relationship IDs
	incoming  map[string][]string
	typeIndex map[string][]string // entity type -> entity IDs
}

// NewGraph creates an empty knowledge graph
func NewGraph() *Graph {
	return &Graph{
		entities:      make(map[string]Entity),
		relationships: make(map[string]Relationship),
		outgoing:      make(map[string][]string),
		incoming:      make(map[string][]string),
		typeIndex:     make(map[string][]string),
	}
}

// AddEntity adds an entity to the graph. Re-adding an existing ID
// replaces the entity.
func (g *Graph) AddEntity(ctx context.Context, entity Entity) error {
	if entity.ID == "" {
		return fmt.Errorf("entity ID is required")
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now()
	}
	entity.UpdatedAt = time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if old, exists := g.entities[entity.ID]; exists {
		if old.Type != entity.Type {
			g.removeFromTypeIndex(old.Type, entity.ID)
			g.typeIndex[entity.Type] = append(g.typeIndex[entity.Type], entity.ID)
		}
		entity.CreatedAt = old.CreatedAt
	} else {
		g.typeIndex[entity.Type] = append(g.typeIndex[entity.Type], entity.ID)
	}
	g.entities[entity.ID] = entity
	return nil
}

// AddRelationship adds a relationship. Both endpoints must already exist.
func (g *Graph) AddRelationship(ctx context.Context, rel Relationship) error {
	if rel.ID == "" {
		return fmt.Errorf("relationship ID is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.entities[rel.Source]; !exists {
		return fmt.Errorf("source entity not found: %s", rel.Source)
	}
	if _, exists := g.entities[rel.Target]; !exists {
		return fmt.Errorf("target entity not found: %s", rel.Target)
	}
	if _, exists := g.relationships[rel.ID]; exists {
		return fmt.Errorf("relationship already exists: %s", rel.ID)
	}

	g.relationships[rel.ID] = rel
	g.outgoing[rel.Source] = append(g.outgoing[rel.Source], rel.ID)
	g.incoming[rel.Target] = append(g.incoming[rel.Target], rel.ID)
	return nil
}

// GetEntity retrieves an entity by ID
func (g *Graph) GetEntity(ctx context.Context, id string) (*Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entity, exists := g.entities[id]
	if !exists {
		return nil, fmt.Errorf("entity not found: %s", id)
	}
	return &entity, nil
}

// EntitiesByType returns all entities of a given type
func (g *Graph) EntitiesByType(ctx context.Context, entityType string) []Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := g.typeIndex[entityType]
	entities := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if entity, exists := g.entities[id]; exists {
			entities = append(entities, entity)
		}
	}
	return entities
}

// Outgoing returns relationships leaving an entity, optionally filtered
// by relationship type
func (g *Graph) Outgoing(ctx context.Context, entityID string, relType string) []Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges(g.outgoing[entityID], relType)
}

// Incoming returns relationships arriving at an entity, optionally
// filtered by relationship type
func (g *Graph) Incoming(ctx context.Context, entityID string, relType string) []Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges(g.incoming[entityID], relType)
}

// edges resolves relationship IDs, filtering by type when relType is
// non-empty. Callers must hold the lock.
func (g *Graph) edges(relIDs []string, relType string) []Relationship {
	rels := make([]Relationship, 0, len(relIDs))
	for _, id := range relIDs {
		rel, exists := g.relationships[id]
		if !exists {
			continue
		}
		if relType != "" && rel.Type != relType {
			continue
		}
		rels = append(rels, rel)
	}
	return rels
}

// Traverse follows a pattern of relationship types from a starting
// entity and returns every complete path as a slice of entity IDs.
//
// For example Traverse(ctx, "project-apollo", []string{"delayed_by",
// "affects", "approved_by"}) returns paths of length 4 that chain those
// relationship types in order over outgoing edges. Only paths matching
// the full pattern are returned.
func (g *Graph) Traverse(ctx context.Context, startID string, pattern []string) [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.traverse(startID, pattern)
}

func (g *Graph) traverse(startID string, pattern []string) [][]string {
	if len(pattern) == 0 {
		return [][]string{{startID}}
	}

	var paths [][]string
	for _, rel := range g.edges(g.outgoing[startID], pattern[0]) {
		if len(pattern) > 1 {
			for _, subPath := range g.traverse(rel.Target, pattern[1:]) {
				path := append([]string{startID}, subPath...)
				paths = append(paths, path)
			}
		} else {
			paths = append(paths, []string{startID, rel.Target})
		}
	}
	return paths
}

// ShortestPath finds the minimum-hop directed path between two entities
// using breadth-first search. Paths longer than maxDepth hops are not
// explored. Returns nil when no path exists, and [source] when source
// and target are the same.
func (g *Graph) ShortestPath(ctx context.Context, sourceID, targetID string, maxDepth int) []string {
	if sourceID == targetID {
		return []string{sourceID}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{sourceID: true}
	type queueItem struct {
		id   string
		path []string
	}
	queue := []queueItem{{id: sourceID, path: []string{sourceID}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if len(current.path) > maxDepth {
			continue
		}

		for _, rel := range g.edges(g.outgoing[current.id], "") {
			if rel.Target == targetID {
				return append(current.path, targetID)
			}
			if !visited[rel.Target] {
				visited[rel.Target] = true
				path := append(append([]string{}, current.path...), rel.Target)
				queue = append(queue, queueItem{id: rel.Target, path: path})
			}
		}
	}

	return nil
}

// Neighborhood returns the IDs of all entities reachable within maxHops
// of the starting entity, following edges in both directions. The
// starting entity is included.
func (g *Graph) Neighborhood(ctx context.Context, startID string, maxHops int) map[string]bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{startID: true}
	frontier := map[string]bool{startID: true}

	for hop := 0; hop < maxHops; hop++ {
		newFrontier := make(map[string]bool)
		for entityID := range frontier {
			for _, rel := range g.edges(g.outgoing[entityID], "") {
				if !visited[rel.Target] {
					visited[rel.Target] = true
					newFrontier[rel.Target] = true
				}
			}
			for _, rel := range g.edges(g.incoming[entityID], "") {
				if !visited[rel.Source] {
					visited[rel.Source] = true
					newFrontier[rel.Source] = true
				}
			}
		}
		frontier = newFrontier
	}

	return visited
}

// QueryAt returns an entity's outgoing relationships of the given type
// that were valid at a specific point in time
func (g *Graph) QueryAt(ctx context.Context, entityID, relType string, t time.Time) []Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var valid []Relationship
	for _, rel := range g.edges(g.outgoing[entityID], relType) {
		if rel.ValidAt(t) {
			valid = append(valid, rel)
		}
	}
	return valid
}

// UpdateEntity updates an existing entity, maintaining the type index
// when the type changes
func (g *Graph) UpdateEntity(ctx context.Context, entity Entity) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	old, exists := g.entities[entity.ID]
	if !exists {
		return fmt.Errorf("entity not found: %s", entity.ID)
	}

	if old.Type != entity.Type {
		g.removeFromTypeIndex(old.Type, entity.ID)
		g.typeIndex[entity.Type] = append(g.typeIndex[entity.Type], entity.ID)
	}

	entity.CreatedAt = old.CreatedAt
	entity.UpdatedAt = time.Now()
	g.entities[entity.ID] = entity
	return nil
}

// DeleteEntity removes an entity and every relationship touching it
func (g *Graph) DeleteEntity(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entity, exists := g.entities[id]
	if !exists {
		return fmt.Errorf("entity not found: %s", id)
	}

	for relID, rel := range g.relationships {
		if rel.Source == id || rel.Target == id {
			g.removeRelationship(relID)
		}
	}

	g.removeFromTypeIndex(entity.Type, id)
	delete(g.entities, id)
	return nil
}

// DeleteRelationship removes a relationship by ID
func (g *Graph) DeleteRelationship(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.relationships[id]; !exists {
		return fmt.Errorf("relationship not found: %s", id)
	}
	g.removeRelationship(id)
	return nil
}

// Stats returns entity and relationship counts
func (g *Graph) Stats(ctx context.Context) (entities, relationships int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entities), len(g.relationships)
}

// Close clears the graph
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entities = make(map[string]Entity)
	g.relationships = make(map[string]Relationship)
	g.outgoing = make(map[string][]string)
	g.incoming = make(map[string][]string)
	g.typeIndex = make(map[string][]string)
	return nil
}

// removeRelationship deletes a relationship and its index entries.
// Callers must hold the lock.
func (g *Graph) removeRelationship(id string) {
	rel, exists := g.relationships[id]
	if !exists {
		return
	}
	g.outgoing[rel.Source] = removeID(g.outgoing[rel.Source], id)
	g.incoming[rel.Target] = removeID(g.incoming[rel.Target], id)
	delete(g.relationships, id)
}

// removeFromTypeIndex removes an entity ID from a type bucket.
// Callers must hold the lock.
func (g *Graph) removeFromTypeIndex(entityType, id string) {
	g.typeIndex[entityType] = removeID(g.typeIndex[entityType], id)
	if len(g.typeIndex[entityType]) == 0 {
		delete(g.typeIndex, entityType)
	}
}

func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
