package migrations

import (
	"fmt"
	"sort"
	"strings"
)

// PlanErrorKind discriminates the ways planning can fail. Planning happens
// strictly before execution, so every PlanError is surfaced before any
// database mutation.
type PlanErrorKind string

const (
	// CycleDetected means no node was schedulable while unresolved nodes
	// remained.
	CycleDetected PlanErrorKind = "cycle_detected"
	// MissingDependency means a declared dependency exists neither in the
	// node set nor in the applied set.
	MissingDependency PlanErrorKind = "missing_dependency"
	// DuplicateIdentity means two nodes share an (app, name) pair.
	DuplicateIdentity PlanErrorKind = "duplicate_identity"
)

// PlanError is returned by Plan when the migration graph is unusable.
type PlanError struct {
	Kind PlanErrorKind

	// Node is the offending node for MissingDependency and DuplicateIdentity.
	Node NodeID
	// Dependency is the missing dependency for MissingDependency.
	Dependency NodeID
	// Cycle holds the nodes involved for CycleDetected, sorted by id.
	Cycle []NodeID
}

func (e *PlanError) Error() string {
	switch e.Kind {
	case CycleDetected:
		ids := make([]string, len(e.Cycle))
		for i, id := range e.Cycle {
			ids[i] = id.String()
		}
		return fmt.Sprintf("dependency cycle between migrations: %s", strings.Join(ids, ", "))
	case MissingDependency:
		return fmt.Sprintf("migration %s depends on %s, which does not exist and has not been applied",
			e.Node, e.Dependency)
	case DuplicateIdentity:
		return fmt.Sprintf("duplicate migration identity %s", e.Node)
	default:
		return fmt.Sprintf("plan error %q on migration %s", e.Kind, e.Node)
	}
}

// Plan computes the ordered sequence of pending migrations.
//
// It builds a directed graph with an edge from each node to every declared
// dependency, plus an implicit edge to the previous migration within the
// same app in declaration order. A node that explicitly names an intra-app
// dependency overrides its implicit predecessor. Nodes in applied are
// excluded from the output but still satisfy dependency edges for others.
//
// The traversal is a deterministic topological sort: among the schedulable
// nodes it always picks the lexicographically smallest (app, name) id, so
// the same input graph yields the same plan on every call.
func Plan(nodes []*Node, applied map[NodeID]bool) ([]NodeID, error) {
	byID := make(map[NodeID]*Node, len(nodes))
	for _, n := range nodes {
		id := n.ID()
		if _, exists := byID[id]; exists {
			return nil, &PlanError{Kind: DuplicateIdentity, Node: id}
		}
		byID[id] = n
	}

	// Dependency edges per node, implicit intra-app chain included.
	deps := make(map[NodeID][]NodeID, len(nodes))
	previous := make(map[string]NodeID) // last node seen per app, in declaration order
	for _, n := range nodes {
		id := n.ID()

		intraApp := false
		for _, dep := range n.Dependencies {
			if dep.App == n.App {
				intraApp = true
			}
			deps[id] = append(deps[id], dep)
		}

		if prev, ok := previous[n.App]; ok && !intraApp {
			deps[id] = append(deps[id], prev)
		}
		previous[n.App] = id
	}

	// Validate edges before traversal. An applied dependency satisfies the
	// edge even if its definition is no longer part of the node set.
	for _, n := range nodes {
		id := n.ID()
		for _, dep := range deps[id] {
			if _, exists := byID[dep]; !exists && !applied[dep] {
				return nil, &PlanError{Kind: MissingDependency, Node: id, Dependency: dep}
			}
		}
	}

	pendingDeps := make(map[NodeID]int, len(nodes))
	dependents := make(map[NodeID][]NodeID)
	var ready []NodeID
	pendingCount := 0

	for _, n := range nodes {
		id := n.ID()
		if applied[id] {
			continue
		}
		pendingCount++

		unmet := 0
		for _, dep := range deps[id] {
			if applied[dep] {
				continue
			}
			if _, exists := byID[dep]; exists {
				unmet++
				dependents[dep] = append(dependents[dep], id)
			}
		}
		pendingDeps[id] = unmet
		if unmet == 0 {
			ready = append(ready, id)
		}
	}

	plan := make([]NodeID, 0, pendingCount)
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Less(ready[j]) })
		next := ready[0]
		ready = ready[1:]
		plan = append(plan, next)

		for _, dependent := range dependents[next] {
			pendingDeps[dependent]--
			if pendingDeps[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(plan) < pendingCount {
		return nil, &PlanError{Kind: CycleDetected, Cycle: cycleMembers(pendingDeps, deps)}
	}
	return plan, nil
}

// cycleMembers narrows the unscheduled remainder down to the nodes that
// actually participate in a cycle by repeatedly trimming nodes that nothing
// in the remainder depends on.
func cycleMembers(pendingDeps map[NodeID]int, deps map[NodeID][]NodeID) []NodeID {
	remaining := make(map[NodeID]bool)
	for id, unmet := range pendingDeps {
		if unmet > 0 {
			remaining[id] = true
		}
	}

	for {
		hasDependent := make(map[NodeID]bool)
		for id := range remaining {
			for _, dep := range deps[id] {
				if remaining[dep] {
					hasDependent[dep] = true
				}
			}
		}

		trimmed := false
		for id := range remaining {
			if !hasDependent[id] {
				delete(remaining, id)
				trimmed = true
			}
		}
		if !trimmed {
			break
		}
	}

	members := make([]NodeID, 0, len(remaining))
	for id := range remaining {
		members = append(members, id)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Less(members[j]) })
	return members
}
