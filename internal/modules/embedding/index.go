package embedding

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/skillpath/core/internal/modules/knowledge"
	"github.com/skillpath/core/internal/pkg/apperr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Similarity is one ranked entry of a similarity query.
type Similarity struct {
	RoleID string
	Score  float64 // cosine similarity normalized to [0,1]
}

// Index holds one vector per catalog role and answers brute-force
// nearest-neighbor queries. The catalog is small enough (≤ ~50 roles)
// that a linear scan beats any index structure.
type Index struct {
	embedder Embedder
	snap     *knowledge.Snapshot
	logger   *zap.Logger

	sf singleflight.Group

	mu      sync.RWMutex
	vectors map[string][]float64
}

func NewIndex(embedder Embedder, snap *knowledge.Snapshot, logger *zap.Logger) *Index {
	return &Index{
		embedder: embedder,
		snap:     snap,
		logger:   logger,
	}
}

// ensureBuilt embeds every role exactly once. Concurrent first callers
// collapse into a single build; a failed build can be retried by a later
// caller.
func (ix *Index) ensureBuilt(ctx context.Context) error {
	ix.mu.RLock()
	built := ix.vectors != nil
	ix.mu.RUnlock()
	if built {
		return nil
	}

	_, err, _ := ix.sf.Do("build", func() (interface{}, error) {
		ix.mu.RLock()
		already := ix.vectors != nil
		ix.mu.RUnlock()
		if already {
			return nil, nil
		}

		roles := ix.snap.All()
		vectors := make(map[string][]float64, len(roles))
		for i := range roles {
			role := &roles[i]
			vec, err := ix.embedder.Embed(ctx, role.EmbeddingText())
			if err != nil {
				return nil, apperr.External(apperr.StageEmbedding, err, "embed role %q", role.Name)
			}
			vectors[role.ID] = vec
		}

		ix.mu.Lock()
		ix.vectors = vectors
		ix.mu.Unlock()
		ix.logger.Info("embedding index built", zap.Int("roles", len(vectors)))
		return nil, nil
	})
	return err
}

// Query embeds the given text and ranks every role by normalized cosine
// similarity, best first.
func (ix *Index) Query(ctx context.Context, text string) ([]Similarity, error) {
	if err := ix.ensureBuilt(ctx); err != nil {
		return nil, err
	}

	queryVec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, apperr.External(apperr.StageEmbedding, err, "embed query")
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]Similarity, 0, len(ix.vectors))
	for roleID, vec := range ix.vectors {
		sim := cosine(queryVec, vec)
		out = append(out, Similarity{
			RoleID: roleID,
			Score:  (sim + 1) / 2,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].RoleID < out[j].RoleID
	})
	return out, nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
