package matcher

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-registry/internal/constants"
)

// HNSW is an approximate index. It pre-selects candidates with an HNSW graph
// and re-scores them exactly, applying the same tolerance and tie-break rules
// as FindMatch. It may miss the true nearest neighbour.
//
// The graph is cached and rebuilt only when the gallery changes.
type HNSW struct {
	mu         sync.Mutex
	graph      *hnsw.Graph[int]
	signature  uint64
	candidates int
}

// NewHNSW creates an empty HNSW index.
func NewHNSW() *HNSW {
	return &HNSW{candidates: constants.HNSWCandidates}
}

// gallerySignature hashes the gallery order and contents that affect the graph.
func gallerySignature(gallery []Candidate) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(gallery)))
	h.Write(buf[:])
	for i := range gallery {
		h.Write([]byte(gallery[i].Ref))
		h.Write([]byte{0})
		h.Write([]byte(gallery[i].Label))
		h.Write([]byte{0})
		for _, f := range gallery[i].Vector {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
			h.Write(buf[:4])
		}
	}
	return h.Sum64()
}

func (h *HNSW) graphFor(gallery []Candidate) *hnsw.Graph[int] {
	sig := gallerySignature(gallery)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.graph != nil && h.signature == sig {
		return h.graph
	}

	g := hnsw.NewGraph[int]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors)
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	for i := range gallery {
		g.Add(hnsw.MakeNode(i, gallery[i].Vector))
	}

	h.graph = g
	h.signature = sig
	return g
}

// Find implements Index.
func (h *HNSW) Find(probe []float32, gallery []Candidate, tolerance float64) (Match, bool, error) {
	if err := validate(probe, tolerance); err != nil {
		return Match{}, false, err
	}
	if err := checkDimensions(probe, gallery); err != nil {
		return Match{}, false, err
	}
	// Small galleries are scanned exactly.
	if len(gallery) <= h.candidates {
		return FindMatch(probe, gallery, tolerance)
	}

	neighbors := h.graphFor(gallery).Search(probe, h.candidates)

	best := -1
	bestDistance := math.Inf(1)
	for _, n := range neighbors {
		if n.Key < 0 || n.Key >= len(gallery) {
			continue
		}
		d := EuclideanDistance(probe, gallery[n.Key].Vector)
		if d < bestDistance || (d == bestDistance && n.Key < best) {
			best = n.Key
			bestDistance = d
		}
	}

	if best < 0 || bestDistance > tolerance {
		return Match{}, false, nil
	}
	return Match{
		Index:    best,
		Label:    gallery[best].Label,
		Ref:      gallery[best].Ref,
		Distance: bestDistance,
	}, true, nil
}
