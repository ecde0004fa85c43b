// Package router computes orthogonal connector polylines between
// entities, avoiding every other entity on the canvas. It implements the
// three-stage algorithm: lead-line generation, routing-graph
// construction, and Dijkstra shortest path.
//
// Grounded on original_source/src/diagram/routing/lead_lines.rs for the
// lead-line extension/collision rules (the minimum-extension segment is
// always reached before collision-trimming applies) and
// original_source/src/diagram/routing/pathfinding.rs for the
// min-heap-with-stable-ID-tie-break shape of Dijkstra. The map-keyed
// graph representation generalizes dshills-dungo's pkg/graph.Graph (BFS
// over string room IDs) to coordinate-keyed points with weighted edges.
//
// All coordinates are int; there is no floating-point comparison
// anywhere in the routing hot path.
package router

import (
	"container/heap"
	"sort"

	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/layout"
)

// Config tunes the lead-line generation stage.
type Config struct {
	Margin         int // obstacle expansion before a collision counts
	MinExtension   int // minimum distance a lead line travels before being trimmed
}

// DefaultConfig returns the constants this module ships with, grounded
// on original_source/src/diagram/routing/lead_lines.rs's LeadLineConfig
// defaults (margin=10, min_lead_extension=30).
func DefaultConfig() Config {
	return Config{Margin: 10, MinExtension: 30}
}

// Point is an integer coordinate.
type Point struct{ X, Y int }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Phase names the stages of routing one connection, modeled as a small
// enum rather than a literal state-machine type. Route reports only the
// final outcome: a Result's Phase is always PhaseDone or
// PhaseUnreachable; the intermediate phases are not recorded.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerateLeads
	PhaseBuildGraph
	PhaseFindPath
	PhaseDone
	PhaseUnreachable
)

func (p Phase) String() string {
	switch p {
	case PhaseGenerateLeads:
		return "generate-leads"
	case PhaseBuildGraph:
		return "build-graph"
	case PhaseFindPath:
		return "find-path"
	case PhaseDone:
		return "done"
	case PhaseUnreachable:
		return "unreachable"
	default:
		return "idle"
	}
}

// Result is the outcome of routing one connection.
type Result struct {
	Phase Phase
	Path  []Point
	Cost  int
}

type direction int

const (
	dirNorth direction = iota
	dirEast
	dirSouth
	dirWest
)

// leadLine is an axis-aligned segment. Vertical lines have a fixed X and
// vary over [Lo, Hi] in Y; horizontal lines have a fixed Y and vary over
// [Lo, Hi] in X.
type leadLine struct {
	vertical bool
	fixed    int
	lo, hi   int
	owner    int
}

func (l leadLine) start() Point {
	if l.vertical {
		return Point{l.fixed, l.lo}
	}
	return Point{l.lo, l.fixed}
}

func (l leadLine) end() Point {
	if l.vertical {
		return Point{l.fixed, l.hi}
	}
	return Point{l.hi, l.fixed}
}

func expand(r layout.Rect, margin int) layout.Rect {
	return layout.Rect{X: r.X - margin, Y: r.Y - margin, Width: r.Width + 2*margin, Height: r.Height + 2*margin}
}

func insideRect(p Point, r layout.Rect) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

func clipToCanvas(p Point, canvas layout.Rect) Point {
	if p.X < canvas.X {
		p.X = canvas.X
	}
	if p.X > canvas.X+canvas.Width {
		p.X = canvas.X + canvas.Width
	}
	if p.Y < canvas.Y {
		p.Y = canvas.Y
	}
	if p.Y > canvas.Y+canvas.Height {
		p.Y = canvas.Y + canvas.Height
	}
	return p
}

func move(p Point, dir direction, dist int) Point {
	switch dir {
	case dirNorth:
		p.Y -= dist
	case dirSouth:
		p.Y += dist
	case dirEast:
		p.X += dist
	case dirWest:
		p.X -= dist
	}
	return p
}

// marchStop finds the coordinate at which a ray from p in dir first hits
// the canvas boundary or the near edge of an obstacle ahead of it.
func marchStop(p Point, dir direction, obstacles []layout.Rect, canvas layout.Rect) int {
	switch dir {
	case dirNorth:
		stop := canvas.Y
		for _, o := range obstacles {
			if p.X >= o.X && p.X <= o.X+o.Width {
				bottom := o.Y + o.Height
				if bottom <= p.Y && bottom > stop {
					stop = bottom
				}
			}
		}
		return stop
	case dirSouth:
		stop := canvas.Y + canvas.Height
		for _, o := range obstacles {
			if p.X >= o.X && p.X <= o.X+o.Width {
				top := o.Y
				if top >= p.Y && top < stop {
					stop = top
				}
			}
		}
		return stop
	case dirEast:
		stop := canvas.X + canvas.Width
		for _, o := range obstacles {
			if p.Y >= o.Y && p.Y <= o.Y+o.Height {
				left := o.X
				if left >= p.X && left < stop {
					stop = left
				}
			}
		}
		return stop
	default: // dirWest
		stop := canvas.X
		for _, o := range obstacles {
			if p.Y >= o.Y && p.Y <= o.Y+o.Height {
				right := o.X + o.Width
				if right <= p.X && right > stop {
					stop = right
				}
			}
		}
		return stop
	}
}

// generateEntityLeadLines produces the 12 lead lines for one entity: each
// of the 4 edge midpoints extends outward in both of its two perpendicular
// directions (top/bottom extend North and South; left/right extend East
// and West) per spec.md 4.5 Stage 1 item 1, plus 4 more in all cardinal
// directions from the center per item 2. A line whose minimum-extension
// escape point lands inside another entity's expanded box is discarded
// rather than clipped, per the edge case in spec.md 4.5.
func generateEntityLeadLines(idx int, rect layout.Rect, allRects []layout.Rect, canvas layout.Rect, cfg Config) []leadLine {
	cx := rect.X + rect.Width/2
	cy := rect.Y + rect.Height/2

	type origin struct {
		pt  Point
		dir direction
	}
	origins := []origin{
		{Point{cx, rect.Y}, dirNorth},
		{Point{cx, rect.Y}, dirSouth},
		{Point{rect.X + rect.Width, cy}, dirEast},
		{Point{rect.X + rect.Width, cy}, dirWest},
		{Point{cx, rect.Y + rect.Height}, dirSouth},
		{Point{cx, rect.Y + rect.Height}, dirNorth},
		{Point{rect.X, cy}, dirWest},
		{Point{rect.X, cy}, dirEast},
		{Point{cx, cy}, dirNorth},
		{Point{cx, cy}, dirEast},
		{Point{cx, cy}, dirSouth},
		{Point{cx, cy}, dirWest},
	}

	var obstacles []layout.Rect
	for i, r := range allRects {
		if i == idx {
			continue
		}
		obstacles = append(obstacles, expand(r, cfg.Margin))
	}

	var lines []leadLine
	for _, o := range origins {
		minPoint := clipToCanvas(move(o.pt, o.dir, cfg.MinExtension), canvas)

		blocked := false
		for _, obs := range obstacles {
			if insideRect(minPoint, obs) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		vertical := o.dir == dirNorth || o.dir == dirSouth
		stop := marchStop(minPoint, o.dir, obstacles, canvas)

		line := leadLine{owner: idx, vertical: vertical}
		if vertical {
			line.fixed = o.pt.X
			lo, hi := stop, o.pt.Y
			if o.dir == dirSouth {
				lo, hi = o.pt.Y, stop
			}
			line.lo, line.hi = lo, hi
		} else {
			line.fixed = o.pt.Y
			lo, hi := stop, o.pt.X
			if o.dir == dirEast {
				lo, hi = o.pt.X, stop
			}
			line.lo, line.hi = lo, hi
		}
		lines = append(lines, line)
	}
	return lines
}

// Graph is the shared routing graph built once for an entire diagram;
// every connection's Dijkstra search runs over the same graph.
type Graph struct {
	points  []Point
	pointID map[Point]int
	adj     map[int][]edge
	rects   map[instantiate.Key]layout.Rect
}

type edge struct {
	to     int
	weight int
}

func (g *Graph) pointIndex(p Point) int {
	if id, ok := g.pointID[p]; ok {
		return id
	}
	id := len(g.points)
	g.points = append(g.points, p)
	g.pointID[p] = id
	return id
}

func (g *Graph) addEdge(a, b, weight int) {
	if a == b {
		return
	}
	g.adj[a] = append(g.adj[a], edge{b, weight})
	g.adj[b] = append(g.adj[b], edge{a, weight})
}

// Build constructs the routing graph for l's full set of positioned
// nodes.
func Build(l *layout.Layout, cfg Config) *Graph {
	canvas := layout.Rect{X: 0, Y: 0, Width: l.Canvas.Width, Height: l.Canvas.Height}

	rects := make(map[instantiate.Key]layout.Rect, len(l.Nodes))
	allRects := make([]layout.Rect, len(l.Nodes))
	for i, n := range l.Nodes {
		rects[n.Key] = n.Rect
		allRects[i] = n.Rect
	}

	var lines []leadLine
	for i, r := range allRects {
		lines = append(lines, generateEntityLeadLines(i, r, allRects, canvas, cfg)...)
	}

	g := &Graph{
		pointID: make(map[Point]int),
		adj:     make(map[int][]edge),
		rects:   rects,
	}

	touches := make([][]int, len(lines))
	for i, ln := range lines {
		touches[i] = append(touches[i], g.pointIndex(ln.start()), g.pointIndex(ln.end()))
	}
	for i := range lines {
		a := lines[i]
		if !a.vertical {
			continue
		}
		for j := range lines {
			b := lines[j]
			if b.vertical {
				continue
			}
			cx, cy := a.fixed, b.fixed
			if cy >= a.lo && cy <= a.hi && cx >= b.lo && cx <= b.hi {
				id := g.pointIndex(Point{cx, cy})
				touches[i] = append(touches[i], id)
				touches[j] = append(touches[j], id)
			}
		}
	}
	// Every graph point lying on a lead line (including another line's
	// collinear endpoint) is a stop along that line.
	for i, ln := range lines {
		for id, p := range g.points {
			fixed, varying := p.Y, p.X
			if ln.vertical {
				fixed, varying = p.X, p.Y
			}
			if fixed == ln.fixed && varying >= ln.lo && varying <= ln.hi {
				touches[i] = append(touches[i], id)
			}
		}
	}

	for i, ln := range lines {
		ids := dedupeInts(touches[i])
		sort.Slice(ids, func(a, b int) bool {
			return varyingCoord(ln, g.points[ids[a]]) < varyingCoord(ln, g.points[ids[b]])
		})
		for k := 0; k+1 < len(ids); k++ {
			p1, p2 := g.points[ids[k]], g.points[ids[k+1]]
			w := abs(p1.X-p2.X) + abs(p1.Y-p2.Y)
			g.addEdge(ids[k], ids[k+1], w)
		}
	}

	return g
}

func varyingCoord(l leadLine, p Point) int {
	if l.vertical {
		return p.Y
	}
	return p.X
}

func dedupeInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := in[:0:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// perimeterPoints returns the graph-point IDs that lie exactly on rect's
// boundary.
func (g *Graph) perimeterPoints(rect layout.Rect) []int {
	var ids []int
	for id, p := range g.points {
		onVerticalEdge := (p.X == rect.X || p.X == rect.X+rect.Width) && p.Y >= rect.Y && p.Y <= rect.Y+rect.Height
		onHorizontalEdge := (p.Y == rect.Y || p.Y == rect.Y+rect.Height) && p.X >= rect.X && p.X <= rect.X+rect.Width
		if onVerticalEdge || onHorizontalEdge {
			ids = append(ids, id)
		}
	}
	return ids
}

func (g *Graph) nearestPoint(center Point) int {
	best, bestDist := -1, 0
	for id, p := range g.points {
		d := abs(p.X-center.X) + abs(p.Y-center.Y)
		if best == -1 || d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}

// pqItem is a min-heap entry, tie-broken on ID ascending for determinism.
type pqItem struct {
	id, cost int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].id < pq[j].id
}
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstra runs a multi-source, multi-target shortest path search and
// returns the point-ID path plus its cost.
func (g *Graph) dijkstra(sources, targets []int) ([]int, int, bool) {
	targetSet := make(map[int]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	dist := make(map[int]int)
	prev := make(map[int]int)
	visited := make(map[int]bool)

	pq := &priorityQueue{}
	heap.Init(pq)
	for _, s := range sources {
		dist[s] = 0
		prev[s] = -1
		heap.Push(pq, pqItem{id: s, cost: 0})
	}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		if targetSet[cur.id] {
			var path []int
			for at := cur.id; at != -1; at = prev[at] {
				path = append([]int{at}, path...)
			}
			return path, cur.cost, true
		}

		for _, e := range g.adj[cur.id] {
			if visited[e.to] {
				continue
			}
			nd := cur.cost + e.weight
			if old, ok := dist[e.to]; !ok || nd < old {
				dist[e.to] = nd
				prev[e.to] = cur.id
				heap.Push(pq, pqItem{id: e.to, cost: nd})
			}
		}
	}
	return nil, 0, false
}

// Route finds the shortest orthogonal path between the nodes identified
// by sourceKey and targetKey.
func (g *Graph) Route(sourceKey, targetKey instantiate.Key) Result {
	srcRect, ok := g.rects[sourceKey]
	if !ok {
		return Result{Phase: PhaseUnreachable}
	}
	dstRect, ok := g.rects[targetKey]
	if !ok {
		return Result{Phase: PhaseUnreachable}
	}

	if srcRect == dstRect {
		cx := srcRect.X + srcRect.Width/2
		cy := srcRect.Y + srcRect.Height/2
		return Result{Phase: PhaseDone, Path: []Point{{cx, cy}}, Cost: 0}
	}

	sources := g.perimeterPoints(srcRect)
	if len(sources) == 0 {
		cx := srcRect.X + srcRect.Width/2
		cy := srcRect.Y + srcRect.Height/2
		sources = []int{g.nearestPoint(Point{cx, cy})}
	}
	targets := g.perimeterPoints(dstRect)
	if len(targets) == 0 {
		cx := dstRect.X + dstRect.Width/2
		cy := dstRect.Y + dstRect.Height/2
		targets = []int{g.nearestPoint(Point{cx, cy})}
	}

	ids, cost, found := g.dijkstra(sources, targets)
	if !found {
		return Result{Phase: PhaseUnreachable}
	}

	path := make([]Point, len(ids))
	for i, id := range ids {
		path[i] = g.points[id]
	}
	return Result{Phase: PhaseDone, Path: path, Cost: cost}
}

// RouteAll runs Route for every connection in conns, keyed by its index
// in that slice.
func RouteAll(l *layout.Layout, conns []instantiate.Connection, cfg Config) []Result {
	g := Build(l, cfg)
	results := make([]Result, len(conns))
	for i, c := range conns {
		results[i] = g.Route(c.From, c.To)
	}
	return results
}
