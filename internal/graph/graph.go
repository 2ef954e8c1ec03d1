// Package graph implements linkage validation and the bidirectional memory
// graph: direct relations and subgraph BFS.
package graph

import (
	"context"

	"memento/internal/model"
	"memento/internal/store/workspace"
)

// MaxDepth is the hard cap on subgraph BFS depth.
const MaxDepth = 5

// ValidateLinkages drops anything that isn't one of the three recognized
// variants and normalizes the rest to {type, id|path, label}.
func ValidateLinkages(raw []model.Linkage) []model.Linkage {
	out := make([]model.Linkage, 0, len(raw))
	for _, l := range raw {
		switch l.Type {
		case model.LinkageMemory, model.LinkageItem:
			if l.ID == "" {
				continue
			}
			out = append(out, model.Linkage{Type: l.Type, ID: l.ID, Label: l.Label})
		case model.LinkageFile:
			if l.Path == "" {
				continue
			}
			out = append(out, model.Linkage{Type: model.LinkageFile, Path: l.Path, Label: l.Label})
		default:
			continue
		}
	}
	return out
}

// Edge is one directed relation in the graph, either between two memories
// or from a memory to a synthetic "file:<path>" node.
type Edge struct {
	From  string
	To    string
	Label string
}

// Node is one BFS frontier hit: a memory at a given traversal depth.
type Node struct {
	Memory *model.Memory
	Depth  int
}

// Subgraph is the result of a BFS traversal: all reachable nodes and the
// deduplicated edges connecting them.
type Subgraph struct {
	Nodes []Node
	Edges []Edge
}

// Service performs graph lookups against one workspace's memory store.
type Service struct {
	store *workspace.Store
}

func NewService(store *workspace.Store) *Service {
	return &Service{store: store}
}

// DirectRelations returns a memory's outgoing edges (from its own linkage
// list) and incoming edges (found by scanning every memory for a linkage
// whose target is id, confirmed by structural match — never substring).
func (s *Service) DirectRelations(ctx context.Context, id string) (outgoing, incoming []Edge, err error) {
	m, err := s.store.GetMemory(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	outgoing = outgoingEdges(m)

	all, err := s.store.ListAllActive(ctx)
	if err != nil {
		return nil, nil, err
	}
	incoming = incomingEdges(all, id)
	return outgoing, incoming, nil
}

func outgoingEdges(m *model.Memory) []Edge {
	edges := make([]Edge, 0, len(m.Linkages))
	for _, l := range m.Linkages {
		switch l.Type {
		case model.LinkageMemory:
			edges = append(edges, Edge{From: m.ID, To: l.ID, Label: l.Label})
		case model.LinkageFile:
			edges = append(edges, Edge{From: m.ID, To: "file:" + l.Path, Label: l.Label})
		case model.LinkageItem:
			edges = append(edges, Edge{From: m.ID, To: "item:" + l.ID, Label: l.Label})
		}
	}
	return edges
}

// incomingEdges finds every memory in all whose linkage list structurally
// points at target (a memory linkage with id == target), confirmed field by
// field rather than by serialized substring match.
func incomingEdges(all []model.Memory, target string) []Edge {
	var edges []Edge
	for i := range all {
		src := &all[i]
		for _, l := range src.Linkages {
			if l.Type == model.LinkageMemory && l.ID == target {
				edges = append(edges, Edge{From: src.ID, To: target, Label: l.Label})
			}
		}
	}
	return edges
}

// Subgraph runs a BFS from startID, at most depth levels (capped at
// MaxDepth). File edges are emitted but never traversed.
func (s *Service) Subgraph(ctx context.Context, startID string, depth int) (*Subgraph, error) {
	if depth > MaxDepth {
		depth = MaxDepth
	}
	if depth < 0 {
		depth = 0
	}

	all, err := s.store.ListAllActive(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Memory, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	start, err := s.store.GetMemory(ctx, startID)
	if err != nil {
		return nil, err
	}

	seenNodes := map[string]bool{startID: true}
	seenEdges := map[string]bool{}
	sg := &Subgraph{}
	sg.Nodes = append(sg.Nodes, Node{Memory: start, Depth: 0})
	byID[start.ID] = start

	type queued struct {
		id    string
		depth int
	}
	queue := []queued{{id: startID, depth: 0}}

	addEdge := func(e Edge) {
		key := e.From + "\x00" + e.To + "\x00" + e.Label
		if seenEdges[key] {
			return
		}
		seenEdges[key] = true
		sg.Edges = append(sg.Edges, e)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		m, ok := byID[cur.id]
		if !ok {
			continue
		}

		for _, l := range m.Linkages {
			switch l.Type {
			case model.LinkageMemory:
				addEdge(Edge{From: m.ID, To: l.ID, Label: l.Label})
				if cur.depth < depth {
					if _, exists := byID[l.ID]; exists && !seenNodes[l.ID] {
						seenNodes[l.ID] = true
						nextDepth := cur.depth + 1
						sg.Nodes = append(sg.Nodes, Node{Memory: byID[l.ID], Depth: nextDepth})
						queue = append(queue, queued{id: l.ID, depth: nextDepth})
					}
				}
			case model.LinkageFile:
				addEdge(Edge{From: m.ID, To: "file:" + l.Path, Label: l.Label})
			case model.LinkageItem:
				addEdge(Edge{From: m.ID, To: "item:" + l.ID, Label: l.Label})
			}
		}

		if cur.depth < depth {
			for _, rev := range incomingEdges(all, m.ID) {
				addEdge(rev)
				if !seenNodes[rev.From] {
					seenNodes[rev.From] = true
					nextDepth := cur.depth + 1
					sg.Nodes = append(sg.Nodes, Node{Memory: byID[rev.From], Depth: nextDepth})
					queue = append(queue, queued{id: rev.From, depth: nextDepth})
				}
			}
		}
	}

	return sg, nil
}
