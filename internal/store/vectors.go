package store

import (
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// vectorIndex is an in-memory HNSW graph over row ids. It is rebuilt from
// the database on open and kept in step with inserts and deletes.
//
// Deletion is lazy: removed ids leave the live set but their nodes stay in
// the graph, because coder/hnsw misbehaves when its last node is deleted.
type vectorIndex struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[int64]
	live    map[int64]struct{}
	orphans int
	dims    int
}

func newVectorIndex(dims int) *vectorIndex {
	g := hnsw.NewGraph[int64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return &vectorIndex{
		graph: g,
		live:  make(map[int64]struct{}),
		dims:  dims,
	}
}

// add indexes vec under id. Vectors of the wrong width and zero vectors
// (blank chunks) are not searchable and are skipped.
func (x *vectorIndex) add(id int64, vec []float32) {
	if len(vec) != x.dims || isZero(vec) {
		return
	}

	unit := make([]float32, len(vec))
	copy(unit, vec)
	normalizeInPlace(unit)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.graph.Add(hnsw.MakeNode(id, unit))
	x.live[id] = struct{}{}
}

func (x *vectorIndex) remove(ids []int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, id := range ids {
		if _, ok := x.live[id]; ok {
			delete(x.live, id)
			x.orphans++
		}
	}
}

type vectorHit struct {
	id       int64
	distance float32
}

// search returns up to k live ids nearest to query, closest first.
func (x *vectorIndex) search(query []float32, k int) []vectorHit {
	if k <= 0 || len(query) != x.dims || isZero(query) {
		return nil
	}

	unit := make([]float32, len(query))
	copy(unit, query)
	normalizeInPlace(unit)

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.live) == 0 {
		return nil
	}

	want := k + x.orphans
	if n := x.graph.Len(); want > n {
		want = n
	}

	var hits []vectorHit
	for _, node := range x.graph.Search(unit, want) {
		if _, ok := x.live[node.Key]; !ok {
			continue
		}
		hits = append(hits, vectorHit{id: node.Key, distance: x.graph.Distance(unit, node.Value)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func (x *vectorIndex) len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.live)
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

func normalizeInPlace(v []float32) {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / mag)
	}
}
