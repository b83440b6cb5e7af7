package canon

import (
	"sort"

	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/common"
)

// rawCluster groups mentions that share a normalized surface form. It is
// the unit the oracle sees and the unit the degraded fallback emits.
type rawCluster struct {
	norm     string
	label    string
	count    int
	surfaces []string
	chunks   []string
}

// groupMentions buckets mentions by normalized surface form and returns
// clusters sorted by that form, so batch composition is stable across runs.
//
// The cluster label is the most frequent original spelling; ties go to the
// lexicographically smaller one.
func groupMentions(mentions []common.Mention) []rawCluster {
	type bucket struct {
		spellings map[string]int
		chunks    map[string]struct{}
		count     int
	}

	buckets := make(map[string]*bucket)
	for _, m := range mentions {
		norm := util.NormalizeSurface(m.Surface)
		if norm == "" {
			continue
		}
		b, ok := buckets[norm]
		if !ok {
			b = &bucket{
				spellings: make(map[string]int),
				chunks:    make(map[string]struct{}),
			}
			buckets[norm] = b
		}
		b.spellings[m.Surface]++
		b.chunks[m.ChunkID] = struct{}{}
		b.count++
	}

	clusters := make([]rawCluster, 0, len(buckets))
	for norm, b := range buckets {
		cl := rawCluster{norm: norm, count: b.count}
		for s := range b.spellings {
			cl.surfaces = append(cl.surfaces, s)
			if cl.label == "" ||
				b.spellings[s] > b.spellings[cl.label] ||
				(b.spellings[s] == b.spellings[cl.label] && s < cl.label) {
				cl.label = s
			}
		}
		for c := range b.chunks {
			cl.chunks = append(cl.chunks, c)
		}
		sort.Strings(cl.surfaces)
		sort.Strings(cl.chunks)
		clusters = append(clusters, cl)
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].norm < clusters[j].norm })
	return clusters
}

func partition(clusters []rawCluster, size int) [][]rawCluster {
	var batches [][]rawCluster
	for start := 0; start < len(clusters); start += size {
		end := util.Min(start+size, len(clusters))
		batches = append(batches, clusters[start:end])
	}
	return batches
}
