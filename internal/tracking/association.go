package tracking

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Association defaults.
const (
	DefaultRangeThreshold   = 100.0
	DefaultDopplerThreshold = 100.0
	DefaultChi2Significance = 0.05
	PositionDOF             = 3

	// scoreTolerance is the relative difference below which two scores
	// count as equal when ranking pairs.
	scoreTolerance = 1e-9
)

// Candidate is an admissible (track, detection) pair. Score is the value
// pairs are ranked by: Euclidean distance for nearest-range correlation,
// squared Mahalanobis distance for joint association.
type Candidate struct {
	Track       *Track
	Detection   int // index into the batch
	Score       float64
	DopplerDiff float64
}

// Assignment binds one detection to one track for a batch.
type Assignment struct {
	Track     *Track
	Detection int
	Score     float64
}

// Associator finds admissible pairs and picks the assignments from them.
// Tracks are passed in ascending id order and must already be predicted to
// the batch time where the associator relies on Sp/Pp.
type Associator interface {
	Candidates(tracks []*Track, dets []Detection) []Candidate
	Assign(candidates []Candidate) []Assignment
}

// DopplerCorrelation reports whether two Doppler values agree within
// threshold.
func DopplerCorrelation(d1, d2, threshold float64) bool {
	return math.Abs(d1-d2) < threshold
}

// ChiSquareGate returns the squared-distance gate for a significance level:
// the (1 − significance) quantile of the χ² distribution with dof degrees of
// freedom.
func ChiSquareGate(significance float64, dof int) float64 {
	return distuv.ChiSquared{K: float64(dof)}.Quantile(1 - significance)
}

// MahalanobisSquared returns (z − pred)ᵀ·cov⁻¹·(z − pred). A covariance that
// is not positive definite yields +Inf so the pair can never be admitted.
func MahalanobisSquared(z, pred [3]float64, cov mat.Symmetric) float64 {
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return math.Inf(1)
	}
	d := mat.NewVecDense(measDim, []float64{z[0] - pred[0], z[1] - pred[1], z[2] - pred[2]})
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, d); err != nil {
		return math.Inf(1)
	}
	return mat.Dot(d, &x)
}

// EuclideanDistance returns |a − b|.
func EuclideanDistance(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ---------------------------------------------------------------------------
// Nearest-range correlation (single-detection batches)
// ---------------------------------------------------------------------------

// RangeCorrelator compares a detection with each track's last filtered
// position. The first track within RangeThreshold wins, not the closest:
// detection density is assumed low enough that greedy matching is adequate.
// Tracks are walked in spawn order, so an older track beats a newer one
// holding a recycled lower id.
type RangeCorrelator struct {
	RangeThreshold float64
	Debug          DebugCollector
}

// Candidates lists every track within range of each detection, oldest
// track first.
func (c *RangeCorrelator) Candidates(tracks []*Track, dets []Detection) []Candidate {
	ordered := append([]*Track(nil), tracks...)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].created < ordered[b].created })

	var out []Candidate
	for di, det := range dets {
		pos := det.Cartesian()
		for _, track := range ordered {
			dist := EuclideanDistance(pos, track.Filter.Position())
			accepted := dist < c.RangeThreshold
			if c.Debug != nil && c.Debug.IsEnabled() {
				c.Debug.RecordAssociation(track.ID, di, dist, accepted)
			}
			if accepted {
				out = append(out, Candidate{
					Track:       track,
					Detection:   di,
					Score:       dist,
					DopplerDiff: math.Abs(det.Doppler - track.LastDoppler),
				})
			}
		}
	}
	return out
}

// Assign takes the first admissible track for each detection, never giving
// a track two detections.
func (c *RangeCorrelator) Assign(candidates []Candidate) []Assignment {
	var out []Assignment
	usedTracks := make(map[TrackID]bool)
	usedDets := make(map[int]bool)
	for _, cand := range candidates {
		if usedDets[cand.Detection] || usedTracks[cand.Track.ID] {
			continue
		}
		usedDets[cand.Detection] = true
		usedTracks[cand.Track.ID] = true
		out = append(out, Assignment{Track: cand.Track, Detection: cand.Detection, Score: cand.Score})
	}
	return out
}

// ---------------------------------------------------------------------------
// Joint association (multi-detection batches)
// ---------------------------------------------------------------------------

// JointAssociator gates pairs by squared Mahalanobis distance against the
// predicted position covariance and by Doppler agreement, splits the
// admissible pairs into independent clusters and resolves each cluster
// greedily.
type JointAssociator struct {
	Gate             float64 // squared-distance gate, see ChiSquareGate
	DopplerThreshold float64
	Debug            DebugCollector

	lastClusters int
}

// Cluster is one connected component of the admissibility graph.
type Cluster struct {
	Tracks     []TrackID
	Detections []int
	Candidates []Candidate
}

// Candidates returns every admissible pair. Tracks must have been predicted
// to the batch time.
func (j *JointAssociator) Candidates(tracks []*Track, dets []Detection) []Candidate {
	var out []Candidate
	for _, track := range tracks {
		pred := track.Filter.PredictedPosition()
		cov := track.Filter.PredictedPositionCovariance()
		for di, det := range dets {
			d2 := MahalanobisSquared(det.Cartesian(), pred, cov)
			dopplerOK := DopplerCorrelation(track.LastDoppler, det.Doppler, j.DopplerThreshold)
			accepted := d2 < j.Gate && dopplerOK
			if j.Debug != nil && j.Debug.IsEnabled() {
				j.Debug.RecordAssociation(track.ID, di, d2, accepted)
			}
			if accepted {
				out = append(out, Candidate{
					Track:       track,
					Detection:   di,
					Score:       d2,
					DopplerDiff: math.Abs(det.Doppler - track.LastDoppler),
				})
			}
		}
	}
	return out
}

// Assign forms clusters and picks the best report per track in each.
func (j *JointAssociator) Assign(candidates []Candidate) []Assignment {
	clusters := FormClusters(candidates)
	j.lastClusters = len(clusters)

	var out []Assignment
	for _, cl := range clusters {
		out = append(out, SelectBestReports(cl.Candidates)...)
	}
	return out
}

// LastClusterCount returns the number of clusters formed by the last Assign.
func (j *JointAssociator) LastClusterCount() int { return j.lastClusters }

// FormClusters groups candidates into connected components of the bipartite
// graph whose edges are the admissible pairs. Clusters are ordered by their
// lowest track id; pairs keep their input order within a cluster.
func FormClusters(candidates []Candidate) []Cluster {
	if len(candidates) == 0 {
		return nil
	}

	// Track nodes use their ids, detection nodes sit above the largest id.
	var maxID int64
	for _, c := range candidates {
		if int64(c.Track.ID) > maxID {
			maxID = int64(c.Track.ID)
		}
	}
	detNode := func(di int) int64 { return maxID + 1 + int64(di) }

	g := simple.NewUndirectedGraph()
	for _, c := range candidates {
		g.SetEdge(g.NewEdge(simple.Node(int64(c.Track.ID)), simple.Node(detNode(c.Detection))))
	}

	component := make(map[int64]int)
	for ci, nodes := range topo.ConnectedComponents(g) {
		for _, n := range nodes {
			component[n.ID()] = ci
		}
	}

	byComponent := make(map[int]*Cluster)
	var order []int
	for _, c := range candidates {
		ci := component[int64(c.Track.ID)]
		cl, ok := byComponent[ci]
		if !ok {
			cl = &Cluster{}
			byComponent[ci] = cl
			order = append(order, ci)
		}
		cl.Candidates = append(cl.Candidates, c)
		if !containsTrack(cl.Tracks, c.Track.ID) {
			cl.Tracks = append(cl.Tracks, c.Track.ID)
		}
		if !containsInt(cl.Detections, c.Detection) {
			cl.Detections = append(cl.Detections, c.Detection)
		}
	}

	clusters := make([]Cluster, 0, len(order))
	for _, ci := range order {
		cl := byComponent[ci]
		sort.Slice(cl.Tracks, func(a, b int) bool { return cl.Tracks[a] < cl.Tracks[b] })
		sort.Ints(cl.Detections)
		clusters = append(clusters, *cl)
	}
	sort.SliceStable(clusters, func(a, b int) bool { return clusters[a].Tracks[0] < clusters[b].Tracks[0] })
	return clusters
}

// SelectBestReports resolves one cluster. Pairs are taken in ascending
// score order, ties going to the smaller Doppler difference, then the lower
// track id and detection index. Scores within scoreTolerance of each other
// are ties. A track or detection already claimed is
// skipped, so each track gets at most one detection and vice versa.
func SelectBestReports(candidates []Candidate) []Assignment {
	ordered := append([]Candidate(nil), candidates...)
	sort.SliceStable(ordered, func(a, b int) bool {
		ca, cb := ordered[a], ordered[b]
		if !scoresTied(ca.Score, cb.Score) {
			return ca.Score < cb.Score
		}
		if ca.DopplerDiff != cb.DopplerDiff {
			return ca.DopplerDiff < cb.DopplerDiff
		}
		if ca.Track.ID != cb.Track.ID {
			return ca.Track.ID < cb.Track.ID
		}
		return ca.Detection < cb.Detection
	})

	var out []Assignment
	usedTracks := make(map[TrackID]bool)
	usedDets := make(map[int]bool)
	for _, c := range ordered {
		if usedTracks[c.Track.ID] || usedDets[c.Detection] {
			continue
		}
		usedTracks[c.Track.ID] = true
		usedDets[c.Detection] = true
		out = append(out, Assignment{Track: c.Track, Detection: c.Detection, Score: c.Score})
	}
	return out
}

func scoresTied(a, b float64) bool {
	return math.Abs(a-b) <= scoreTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func containsTrack(ids []TrackID, id TrackID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
