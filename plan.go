package kestrel

import (
	"fmt"
	"sort"
	"strings"
)

// ExecutionPlan is the frozen output of the Dependency Planner: a
// dependency-respecting host order and the partition between host and
// worker modules. Once produced it never changes for the life of the
// registry that built it.
type ExecutionPlan struct {
	HostOrder []string // topologically sorted names of HostModule descriptors
	Workers   []string // names of WorkerModule descriptors, in registration order
	index     map[string]*Descriptor
}

// Descriptor looks up a module's frozen descriptor by name.
func (p *ExecutionPlan) Descriptor(name string) (*Descriptor, bool) {
	d, ok := p.index[name]
	return d, ok
}

// buildExecutionPlan resolves dependencies, performs a Kahn's-algorithm
// topological sort over HostModule descriptors (ties broken by registration
// order for a stable plan across runs), and detects cycles. WorkerModule
// descriptors are not ordered against each other — each runs on its own
// thread — but their declared deps still must resolve to known modules.
func buildExecutionPlan(modules map[string]*Descriptor, order []string) (*ExecutionPlan, error) {
	// Every dependency must name a registered module, regardless of kind.
	for _, name := range order {
		d := modules[name]
		for _, dep := range d.Deps {
			if _, ok := modules[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %q", ErrUnknownDep, name, dep)
			}
		}
	}

	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}

	hostOrder, err := kahnSort(modules, order, rank)
	if err != nil {
		return nil, err
	}

	var workers []string
	for _, name := range order {
		if modules[name].Kind == WorkerModule {
			workers = append(workers, name)
		}
	}

	return &ExecutionPlan{HostOrder: hostOrder, Workers: workers, index: modules}, nil
}

// kahnSort topologically sorts the HostModule subset of modules using
// Kahn's algorithm: repeatedly peel off modules with no unsatisfied
// dependency. Among modules currently ready to peel, the one with the
// lowest registration rank goes first, which makes the resulting order
// deterministic and stable across repeated runs with identical input.
//
// A WorkerModule may be named as a dependency of a HostModule (it still
// needs to exist and publish its shared cell), but WorkerModules themselves
// are excluded from the host ordering — they run on their own threads and
// are paced independently.
func kahnSort(modules map[string]*Descriptor, order []string, rank map[string]int) ([]string, error) {
	hostSet := make(map[string]struct{})
	for _, name := range order {
		if modules[name].Kind == HostModule {
			hostSet[name] = struct{}{}
		}
	}

	// indegree counts unsatisfied host->host edges only; a host module's
	// dependency on a worker module never blocks its ordering.
	indegree := make(map[string]int, len(hostSet))
	dependents := make(map[string][]string, len(hostSet))
	for name := range hostSet {
		indegree[name] = 0
	}
	for name := range hostSet {
		for _, dep := range modules[name].Deps {
			if _, depIsHost := hostSet[dep]; !depIsHost {
				continue
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name := range hostSet {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sortByRank(ready, rank)

	var sorted []string
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, next)

		var freed []string
		for _, child := range dependents[next] {
			indegree[child]--
			if indegree[child] == 0 {
				freed = append(freed, child)
			}
		}
		sortByRank(freed, rank)
		ready = mergeByRank(ready, freed, rank)
	}

	if len(sorted) != len(hostSet) {
		cyclic := make([]string, 0)
		for name := range hostSet {
			if indegree[name] > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cyclic, ", "))
	}

	return sorted, nil
}

func sortByRank(names []string, rank map[string]int) {
	sort.Slice(names, func(i, j int) bool { return rank[names[i]] < rank[names[j]] })
}

// mergeByRank merges two already rank-sorted slices into one rank-sorted
// slice, keeping the ready queue deterministic without re-sorting it whole
// on every iteration.
func mergeByRank(a, b []string, rank map[string]int) []string {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if rank[a[i]] <= rank[b[j]] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
