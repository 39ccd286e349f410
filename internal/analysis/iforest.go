package analysis

import (
	"math"
	"math/rand"
	"sort"
)

const eulerGamma = 0.5772156649

// Isolation forest defaults.
const (
	DefaultTrees         = 100
	DefaultMaxSamples    = 256
	DefaultContamination = 0.2
	DefaultSeed          = 42
)

// IsolationForest scores one-dimensional values by how quickly random splits
// isolate them. Scores lie in (0,1]; higher is more anomalous.
type IsolationForest struct {
	Trees      int
	MaxSamples int
	Seed       int64
}

type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
	leaf        bool
}

// Scores returns the anomaly score of every value. The same input and seed
// always give the same scores.
func (f IsolationForest) Scores(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}

	trees := f.Trees
	if trees <= 0 {
		trees = DefaultTrees
	}
	sample := f.MaxSamples
	if sample <= 0 {
		sample = DefaultMaxSamples
	}
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(sample), 2))))

	rng := rand.New(rand.NewSource(f.Seed))
	forest := make([]*isoNode, trees)
	for t := range forest {
		idx := rng.Perm(n)[:sample]
		sub := make([]float64, sample)
		for i, j := range idx {
			sub[i] = values[j]
		}
		forest[t] = buildIsoTree(rng, sub, 0, maxDepth)
	}

	norm := averagePathLength(sample)
	scores := make([]float64, n)
	for i, v := range values {
		var total float64
		for _, tree := range forest {
			total += pathLength(tree, v, 0)
		}
		mean := total / float64(trees)
		if norm == 0 {
			scores[i] = 0.5
			continue
		}
		scores[i] = math.Pow(2, -mean/norm)
	}
	return scores
}

func buildIsoTree(rng *rand.Rand, values []float64, depth, maxDepth int) *isoNode {
	if depth >= maxDepth || len(values) <= 1 {
		return &isoNode{leaf: true, size: len(values)}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return &isoNode{leaf: true, size: len(values)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &isoNode{
		split: split,
		left:  buildIsoTree(rng, left, depth+1, maxDepth),
		right: buildIsoTree(rng, right, depth+1, maxDepth),
	}
}

func pathLength(node *isoNode, v float64, depth int) float64 {
	if node.leaf {
		return float64(depth) + averagePathLength(node.size)
	}
	if v < node.split {
		return pathLength(node.left, v, depth+1)
	}
	return pathLength(node.right, v, depth+1)
}

// averagePathLength is the expected path length of an unsuccessful search in
// a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

// Outliers flags the values whose score is strictly above the (1-c)
// percentile of all scores, so roughly a c fraction is flagged. Fewer than
// two values are never outliers.
func (f IsolationForest) Outliers(values []float64, contamination float64) []bool {
	flags := make([]bool, len(values))
	if len(values) < 2 {
		return flags
	}
	if contamination <= 0 || contamination >= 1 {
		contamination = DefaultContamination
	}

	scores := f.Scores(values)
	threshold := percentile(scores, (1-contamination)*100)
	for i, s := range scores {
		flags[i] = s > threshold
	}
	return flags
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
