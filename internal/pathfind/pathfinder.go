// Package pathfind computes train routes over the network topology using
// one of three algorithms (Dijkstra, Greedy Best-First, A*) and pluggable
// edge-cost criteria.
package pathfind

import (
	"container/heap"
	"fmt"
	"log"
	"sort"

	"github.com/railvision/dispatch/internal/topology"
)

// Strategy selects the search algorithm.
type Strategy string

const (
	StrategyDijkstra Strategy = "dijkstra"
	StrategyGreedy   Strategy = "greedy"
	StrategyAStar    Strategy = "astar"
)

// Pathfinder runs route searches against one topology graph. Searches are
// pure with respect to the current graph state; the owning network
// serialises graph mutations against searches.
type Pathfinder struct {
	graph    *topology.Graph
	strategy Strategy
}

// New binds a pathfinder to a graph with the default Dijkstra strategy.
func New(g *topology.Graph) *Pathfinder {
	return &Pathfinder{graph: g, strategy: StrategyDijkstra}
}

// Strategy returns the currently selected algorithm.
func (p *Pathfinder) Strategy() Strategy { return p.strategy }

// SetStrategy switches the search algorithm.
func (p *Pathfinder) SetStrategy(s Strategy) error {
	switch s {
	case StrategyDijkstra, StrategyGreedy, StrategyAStar:
		p.strategy = s
		return nil
	default:
		return fmt.Errorf("invalid pathfinding strategy %q", s)
	}
}

// Rebind attaches the pathfinder to another graph (used after cloning a
// network; routes already built keep their segment copies).
func (p *Pathfinder) Rebind(g *topology.Graph) { p.graph = g }

// FindBestRoute returns the best route between two stations under the
// selected strategy and criterion, or nil when no route exists. An
// origin equal to the destination yields nil, not an empty route.
func (p *Pathfinder) FindBestRoute(origin, destination, trainType string, criterion Criterion) *Route {
	if !p.graph.HasStation(origin) || !p.graph.HasStation(destination) {
		log.Printf("Routing: invalid stations %s -> %s", origin, destination)
		return nil
	}
	if origin == destination {
		return nil
	}

	var segments []RouteSegment
	switch p.strategy {
	case StrategyGreedy:
		segments = p.greedyBestFirst(origin, destination)
	case StrategyAStar:
		segments = p.astar(origin, destination, criterion, trainType)
	default:
		segments = p.dijkstra(origin, destination, criterion, trainType)
	}
	if len(segments) == 0 {
		return nil
	}
	return buildRoute(segments, string(p.strategy)+"_route", routeCost(segments))
}

// FindAlternativeRoutes searches under each criterion in turn (time,
// reliability, distance), drops near-duplicates and returns up to max
// routes sorted ascending by route cost.
func (p *Pathfinder) FindAlternativeRoutes(origin, destination, trainType string, max int) []*Route {
	var routes []*Route
	for _, criterion := range []Criterion{CriterionTime, CriterionReliability, CriterionDistance} {
		route := p.FindBestRoute(origin, destination, trainType, criterion)
		if route == nil || isDuplicateRoute(route, routes) {
			continue
		}
		routes = append(routes, route)
		if len(routes) >= max {
			break
		}
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].TotalCost < routes[j].TotalCost })
	if len(routes) > max {
		routes = routes[:max]
	}
	return routes
}

// isDuplicateRoute reports whether a candidate repeats an existing route:
// identical station list, or more than 80% shared segments.
func isDuplicateRoute(candidate *Route, existing []*Route) bool {
	for _, route := range existing {
		if candidate.SameStations(route) {
			return true
		}
		shared := 0
		for _, seg := range candidate.Segments {
			if route.UsesTrack(seg.TrackID) {
				shared++
			}
		}
		if float64(shared)/float64(len(candidate.Segments)) > 0.8 {
			return true
		}
	}
	return false
}

// searchItem is one priority-queue entry. The insertion order field breaks
// cost ties so segment payloads are never compared.
type searchItem struct {
	cost     float64
	order    int
	station  string
	segments []RouteSegment
	g        float64 // accumulated cost (A* only)
}

type searchQueue []*searchItem

func (q searchQueue) Len() int { return len(q) }
func (q searchQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].order < q[j].order
}
func (q searchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x interface{}) { *q = append(*q, x.(*searchItem)) }
func (q *searchQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// dijkstra runs a standard min-priority-queue search over cumulative edge
// cost, skipping non-operational tracks.
func (p *Pathfinder) dijkstra(origin, destination string, criterion Criterion, trainType string) []RouteSegment {
	order := 0
	pq := searchQueue{{cost: 0, order: order, station: origin}}
	heap.Init(&pq)
	visited := make(map[string]bool)

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*searchItem)
		if visited[item.station] {
			continue
		}
		visited[item.station] = true
		if item.station == destination {
			return item.segments
		}

		for _, nb := range p.graph.Neighbors(item.station) {
			if !nb.Track.Operational() || visited[nb.To] {
				continue
			}
			segment := segmentFromTrack(nb.Track, item.station, nb.To)
			order++
			heap.Push(&pq, &searchItem{
				cost:     item.cost + edgeCost(nb.Track, criterion, trainType),
				order:    order,
				station:  nb.To,
				segments: appendSegment(item.segments, segment),
			})
		}
	}
	return nil
}

// greedyBestFirst expands the neighbour closest to the destination by
// heuristic alone, ignoring accumulated cost, and returns the first path
// that reaches the destination.
func (p *Pathfinder) greedyBestFirst(origin, destination string) []RouteSegment {
	order := 0
	pq := searchQueue{{cost: 0, order: order, station: origin}}
	heap.Init(&pq)
	visited := make(map[string]bool)

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*searchItem)
		if visited[item.station] {
			continue
		}
		visited[item.station] = true
		if item.station == destination {
			return item.segments
		}

		for _, nb := range p.graph.Neighbors(item.station) {
			if !nb.Track.Operational() || visited[nb.To] {
				continue
			}
			segment := segmentFromTrack(nb.Track, item.station, nb.To)
			order++
			heap.Push(&pq, &searchItem{
				cost:     p.heuristic(nb.To, destination),
				order:    order,
				station:  nb.To,
				segments: appendSegment(item.segments, segment),
			})
		}
	}
	return nil
}

// astar orders the queue by g + h. The heuristic is treated as a soft
// guide; closed vertices are not re-opened.
func (p *Pathfinder) astar(origin, destination string, criterion Criterion, trainType string) []RouteSegment {
	order := 0
	pq := searchQueue{{cost: p.heuristic(origin, destination), order: order, station: origin}}
	heap.Init(&pq)
	visited := make(map[string]bool)

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*searchItem)
		if visited[item.station] {
			continue
		}
		visited[item.station] = true
		if item.station == destination {
			return item.segments
		}

		for _, nb := range p.graph.Neighbors(item.station) {
			if !nb.Track.Operational() || visited[nb.To] {
				continue
			}
			g := item.g + edgeCost(nb.Track, criterion, trainType)
			segment := segmentFromTrack(nb.Track, item.station, nb.To)
			order++
			heap.Push(&pq, &searchItem{
				cost:     g + p.heuristic(nb.To, destination),
				order:    order,
				station:  nb.To,
				segments: appendSegment(item.segments, segment),
				g:        g,
			})
		}
	}
	return nil
}

// appendSegment copies the path before extending it; queued items must not
// share backing arrays.
func appendSegment(path []RouteSegment, seg RouteSegment) []RouteSegment {
	extended := make([]RouteSegment, len(path)+1)
	copy(extended, path)
	extended[len(path)] = seg
	return extended
}
