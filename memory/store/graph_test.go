package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// buildProjectGraph creates a small impact-analysis graph:
// apollo --delayed_by--> issue --affects--> budget --approved_by--> sarah
// bob --owns--> apollo, bob --reports_to--> sarah,
// mercury --depends_on--> apollo
func buildProjectGraph(t *testing.T) *Graph {
	t.Helper()
	ctx := context.Background()
	g := NewGraph()

	entities := []Entity{
		{ID: "apollo", Type: "Project", Name: "Project Apollo"},
		{ID: "issue", Type: "Issue", Name: "Supply Chain Disruption"},
		{ID: "budget", Type: "Budget", Name: "Q3 Operating Budget"},
		{ID: "sarah", Type: "Person", Name: "Sarah"},
		{ID: "bob", Type: "Person", Name: "Bob"},
		{ID: "mercury", Type: "Project", Name: "Project Mercury"},
	}
	for _, e := range entities {
		assert.NoError(t, g.AddEntity(ctx, e))
	}

	rels := []Relationship{
		{ID: "r1", Source: "apollo", Target: "issue", Type: "delayed_by"},
		{ID: "r2", Source: "issue", Target: "budget", Type: "affects"},
		{ID: "r3", Source: "budget", Target: "sarah", Type: "approved_by"},
		{ID: "r4", Source: "bob", Target: "apollo", Type: "owns"},
		{ID: "r5", Source: "bob", Target: "sarah", Type: "reports_to"},
		{ID: "r6", Source: "mercury", Target: "apollo", Type: "depends_on"},
	}
	for _, r := range rels {
		assert.NoError(t, g.AddRelationship(ctx, r))
	}

	return g
}

func TestGraphBasics(t *testing.T) {
	ctx := context.Background()
	g := buildProjectGraph(t)

	t.Run("get entity", func(t *testing.T) {
		entity, err := g.GetEntity(ctx, "apollo")
		assert.NoError(t, err)
		assert.Equal(t, "Project Apollo", entity.Name)

		_, err = g.GetEntity(ctx, "missing")
		assert.Error(t, err)
	})

	t.Run("entities by type", func(t *testing.T) {
		people := g.EntitiesByType(ctx, "Person")
		assert.Len(t, people, 2)

		assert.Empty(t, g.EntitiesByType(ctx, "Unknown"))
	})

	t.Run("outgoing and incoming", func(t *testing.T) {
		out := g.Outgoing(ctx, "bob", "")
		assert.Len(t, out, 2)

		owns := g.Outgoing(ctx, "bob", "owns")
		assert.Len(t, owns, 1)
		assert.Equal(t, "apollo", owns[0].Target)

		in := g.Incoming(ctx, "sarah", "")
		assert.Len(t, in, 2)

		approvals := g.Incoming(ctx, "sarah", "approved_by")
		assert.Len(t, approvals, 1)
		assert.Equal(t, "budget", approvals[0].Source)
	})

	t.Run("relationship requires endpoints", func(t *testing.T) {
		err := g.AddRelationship(ctx, Relationship{ID: "rx", Source: "missing", Target: "apollo", Type: "owns"})
		assert.Error(t, err)

		err = g.AddRelationship(ctx, Relationship{ID: "ry", Source: "apollo", Target: "missing", Type: "owns"})
		assert.Error(t, err)
	})
}

func TestGraphTraverse(t *testing.T) {
	ctx := context.Background()
	g := buildProjectGraph(t)

	t.Run("pattern chain", func(t *testing.T) {
		paths := g.Traverse(ctx, "apollo", []string{"delayed_by", "affects", "approved_by"})
		assert.Len(t, paths, 1)
		assert.Equal(t, []string{"apollo", "issue", "budget", "sarah"}, paths[0])
	})

	t.Run("empty pattern returns start", func(t *testing.T) {
		paths := g.Traverse(ctx, "apollo", nil)
		assert.Equal(t, [][]string{{"apollo"}}, paths)
	})

	t.Run("no match", func(t *testing.T) {
		paths := g.Traverse(ctx, "apollo", []string{"owns"})
		assert.Empty(t, paths)
	})

	t.Run("partial match is not returned", func(t *testing.T) {
		// delayed_by exists but the second hop type does not
		paths := g.Traverse(ctx, "apollo", []string{"delayed_by", "owns"})
		assert.Empty(t, paths)
	})
}

func TestGraphShortestPath(t *testing.T) {
	ctx := context.Background()
	g := buildProjectGraph(t)

	t.Run("multi-hop path", func(t *testing.T) {
		path := g.ShortestPath(ctx, "mercury", "sarah", 5)
		assert.Equal(t, []string{"mercury", "apollo", "issue", "budget", "sarah"}, path)
	})

	t.Run("direct edge", func(t *testing.T) {
		path := g.ShortestPath(ctx, "bob", "sarah", 5)
		assert.Equal(t, []string{"bob", "sarah"}, path)
	})

	t.Run("same source and target", func(t *testing.T) {
		assert.Equal(t, []string{"apollo"}, g.ShortestPath(ctx, "apollo", "apollo", 5))
	})

	t.Run("unreachable", func(t *testing.T) {
		// Edges are directed, so sarah has no outgoing path to apollo
		assert.Nil(t, g.ShortestPath(ctx, "sarah", "apollo", 5))
	})

	t.Run("bounded by max depth", func(t *testing.T) {
		assert.Nil(t, g.ShortestPath(ctx, "mercury", "sarah", 2))
	})
}

func TestGraphNeighborhood(t *testing.T) {
	ctx := context.Background()
	g := buildProjectGraph(t)

	t.Run("one hop", func(t *testing.T) {
		hood := g.Neighborhood(ctx, "issue", 1)
		assert.Len(t, hood, 3)
		assert.True(t, hood["issue"])
		assert.True(t, hood["apollo"])
		assert.True(t, hood["budget"])
	})

	t.Run("two hops reaches both directions", func(t *testing.T) {
		hood := g.Neighborhood(ctx, "issue", 2)
		assert.True(t, hood["sarah"])
		assert.True(t, hood["bob"])
		assert.True(t, hood["mercury"])
	})

	t.Run("zero hops is just the start", func(t *testing.T) {
		hood := g.Neighborhood(ctx, "issue", 0)
		assert.Equal(t, map[string]bool{"issue": true}, hood)
	})
}

func TestGraphTemporal(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()

	assert.NoError(t, g.AddEntity(ctx, Entity{ID: "alice", Type: "Person", Name: "Alice"}))
	assert.NoError(t, g.AddEntity(ctx, Entity{ID: "teamA", Type: "Team", Name: "Team A"}))
	assert.NoError(t, g.AddEntity(ctx, Entity{ID: "teamB", Type: "Team", Name: "Team B"}))

	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Alice was on team A until June, then moved to team B
	assert.NoError(t, g.AddRelationship(ctx, Relationship{
		ID: "m1", Source: "alice", Target: "teamA", Type: "member_of",
		ValidFrom: jan, ValidTo: jun,
	}))
	assert.NoError(t, g.AddRelationship(ctx, Relationship{
		ID: "m2", Source: "alice", Target: "teamB", Type: "member_of",
		ValidFrom: jun,
	}))

	t.Run("query in first period", func(t *testing.T) {
		rels := g.QueryAt(ctx, "alice", "member_of", jan.AddDate(0, 2, 0))
		assert.Len(t, rels, 1)
		assert.Equal(t, "teamA", rels[0].Target)
	})

	t.Run("query in second period", func(t *testing.T) {
		rels := g.QueryAt(ctx, "alice", "member_of", jun.AddDate(0, 3, 0))
		assert.Len(t, rels, 1)
		assert.Equal(t, "teamB", rels[0].Target)
	})

	t.Run("query before any membership", func(t *testing.T) {
		rels := g.QueryAt(ctx, "alice", "member_of", jan.AddDate(-1, 0, 0))
		assert.Empty(t, rels)
	})

	t.Run("unbounded relationship always valid", func(t *testing.T) {
		assert.True(t, Relationship{}.ValidAt(time.Now()))
	})
}

func TestGraphMutation(t *testing.T) {
	ctx := context.Background()

	t.Run("update entity maintains type index", func(t *testing.T) {
		g := NewGraph()
		g.AddEntity(ctx, Entity{ID: "x", Type: "Draft", Name: "X"})

		err := g.UpdateEntity(ctx, Entity{ID: "x", Type: "Published", Name: "X"})
		assert.NoError(t, err)
		assert.Empty(t, g.EntitiesByType(ctx, "Draft"))
		assert.Len(t, g.EntitiesByType(ctx, "Published"), 1)

		err = g.UpdateEntity(ctx, Entity{ID: "missing", Type: "Draft"})
		assert.Error(t, err)
	})

	t.Run("delete entity removes touching relationships", func(t *testing.T) {
		g := buildProjectGraph(t)
		err := g.DeleteEntity(ctx, "issue")
		assert.NoError(t, err)

		assert.Empty(t, g.Outgoing(ctx, "apollo", "delayed_by"))
		assert.Empty(t, g.Incoming(ctx, "budget", "affects"))

		_, rels := g.Stats(ctx)
		assert.Equal(t, 4, rels)
	})

	t.Run("delete relationship", func(t *testing.T) {
		g := buildProjectGraph(t)
		assert.NoError(t, g.DeleteRelationship(ctx, "r5"))
		assert.Empty(t, g.Outgoing(ctx, "bob", "reports_to"))

		assert.Error(t, g.DeleteRelationship(ctx, "r5"))
	})
}
