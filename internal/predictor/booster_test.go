package predictor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separable(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(3))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		signal := rng.Float64()
		x[i] = []float64{signal, rng.Float64()}
		if signal > 0.5 {
			y[i] = 1
		}
	}
	return x, y
}

func TestBoosterLearnsThreshold(t *testing.T) {
	x, y := separable(400)
	cfg := BoosterConfig{Trees: 50, MaxDepth: 2, LearningRate: 0.3, MinLeaf: 5, MaxBins: 32, L2: 1}

	b, err := TrainBooster(x, y, nil, cfg)
	require.NoError(t, err)
	require.Len(t, b.Trees, 50)

	assert.Greater(t, b.PredictProba([]float64{0.9, 0.5}), 0.8)
	assert.Less(t, b.PredictProba([]float64{0.1, 0.5}), 0.2)

	imp := b.Importance()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], imp[1])
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
}

func TestBoosterIsDeterministic(t *testing.T) {
	x, y := separable(200)
	cfg := DefaultConfig().Booster
	cfg.Trees = 20
	cfg.MinLeaf = 5

	a, err := TrainBooster(x, y, nil, cfg)
	require.NoError(t, err)
	b, err := TrainBooster(x, y, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBoosterRespectsWeights(t *testing.T) {
	// Identical rows with opposite labels: the weights decide the prior.
	x := [][]float64{{1}, {1}, {1}, {1}}
	y := []float64{1, 1, 0, 0}
	w := []float64{3, 3, 1, 1}
	cfg := BoosterConfig{Trees: 1, MaxDepth: 1, LearningRate: 0.1, MinLeaf: 1, MaxBins: 8, L2: 1}

	b, err := TrainBooster(x, y, w, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, sigmoid(b.BaseScore), 1e-9)
}

func TestBoosterRejectsBadInput(t *testing.T) {
	cfg := DefaultConfig().Booster
	_, err := TrainBooster(nil, nil, nil, cfg)
	assert.Error(t, err)

	_, err = TrainBooster([][]float64{{1}}, []float64{1, 0}, nil, cfg)
	assert.Error(t, err)
}

func TestBinThresholds(t *testing.T) {
	assert.Nil(t, binThresholds([]float64{2, 2, 2}, 8))
	assert.Equal(t, []float64{1.5, 2.5}, binThresholds([]float64{3, 1, 2, 2}, 8))

	col := make([]float64, 100)
	for i := range col {
		col[i] = float64(i)
	}
	thr := binThresholds(col, 4)
	assert.Equal(t, []float64{25, 50, 75}, thr)
}
