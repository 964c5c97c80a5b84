// Package dag tracks which macro modules load() which. It detects load
// cycles and answers which modules a change to one module affects.
package dag

import (
	"fmt"
	"slices"
)

// Graph is a directed graph of module names. An edge runs from a module
// to each module that loads it.
type Graph struct {
	nodes      map[string]bool
	dependents map[string][]string // module -> modules loading it
	loads      map[string][]string // module -> modules it loads
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]bool),
		dependents: make(map[string][]string),
		loads:      make(map[string][]string),
	}
}

// AddModule adds a module. Adding a module twice is a no-op.
func (g *Graph) AddModule(name string) {
	g.nodes[name] = true
}

// AddLoad records that module loads dep.
func (g *Graph) AddLoad(module, dep string) error {
	if !g.nodes[module] {
		return fmt.Errorf("module %q does not exist", module)
	}
	if !g.nodes[dep] {
		return fmt.Errorf("loaded module %q does not exist", dep)
	}
	if !slices.Contains(g.loads[module], dep) {
		g.loads[module] = append(g.loads[module], dep)
		g.dependents[dep] = append(g.dependents[dep], module)
	}
	return nil
}

// Has reports whether the graph contains name.
func (g *Graph) Has(name string) bool {
	return g.nodes[name]
}

// Modules returns every module name, sorted.
func (g *Graph) Modules() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Loads returns the modules name loads, in load order.
func (g *Graph) Loads(name string) []string {
	return g.loads[name]
}

// Dependents returns the modules that load name directly.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// FindCycle returns a load cycle as a path that starts and ends with the
// same module, or nil when there is none. Modules are visited in sorted
// order, so the result is deterministic.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = active
		stack = append(stack, name)
		for _, dep := range g.loads[name] {
			switch state[dep] {
			case active:
				start := slices.Index(stack, dep)
				return append(slices.Clone(stack[start:]), dep)
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range g.Modules() {
		if state[name] == unvisited {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Order returns the modules with every module after the modules it loads.
func (g *Graph) Order() ([]string, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("load cycle: %v", cycle)
	}

	visited := make(map[string]bool, len(g.nodes))
	order := make([]string, 0, len(g.nodes))
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range g.loads[name] {
			visit(dep)
		}
		order = append(order, name)
	}
	for _, name := range g.Modules() {
		visit(name)
	}
	return order, nil
}

// Affected returns the changed modules that are in the graph together
// with every module that loads one of them, directly or not. The result
// is sorted.
func (g *Graph) Affected(changed ...string) []string {
	seen := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		for _, dependent := range g.dependents[name] {
			mark(dependent)
		}
	}
	for _, name := range changed {
		if g.nodes[name] {
			mark(name)
		}
	}
	return sortedKeys(seen)
}

// Upstream returns every module name loads, directly or not, sorted.
func (g *Graph) Upstream(name string) []string {
	seen := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		for _, dep := range g.loads[name] {
			if !seen[dep] {
				seen[dep] = true
				mark(dep)
			}
		}
	}
	mark(name)
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
