package models

// Graph is the read-only foreign key graph of a schema. It is built once per
// run and shared by every synthesis call.
type Graph struct {
	edges    []ForeignKey
	outgoing map[string][]ForeignKey
	incoming map[string][]ForeignKey
}

// NewGraph indexes edges by child and parent table. Edge order is kept.
func NewGraph(edges []ForeignKey) *Graph {
	g := &Graph{
		edges:    make([]ForeignKey, len(edges)),
		outgoing: make(map[string][]ForeignKey),
		incoming: make(map[string][]ForeignKey),
	}
	copy(g.edges, edges)

	for _, e := range g.edges {
		g.outgoing[e.FromTable] = append(g.outgoing[e.FromTable], e)
		g.incoming[e.ToTable] = append(g.incoming[e.ToTable], e)
	}
	return g
}

// Outgoing returns the edges whose child is table.
func (g *Graph) Outgoing(table string) []ForeignKey {
	if g == nil {
		return nil
	}
	return g.outgoing[table]
}

// Incoming returns the edges whose parent is table, including self references.
func (g *Graph) Incoming(table string) []ForeignKey {
	if g == nil {
		return nil
	}
	return g.incoming[table]
}

// Edges returns a copy of every edge in the graph.
func (g *Graph) Edges() []ForeignKey {
	if g == nil {
		return nil
	}
	out := make([]ForeignKey, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}
