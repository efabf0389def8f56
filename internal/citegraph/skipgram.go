package citegraph

import (
	"math"
	"math/rand/v2"
	"sort"
)

// SkipGram trains word2vec-style embeddings with negative sampling
// over a walk corpus. Node indices are the vocabulary, so no token
// mapping is needed: walks arrive as []int sentences.
type SkipGram struct {
	Dim      int     // embedding dimension
	Window   int     // context window radius
	MinCount int     // nodes seen fewer times keep their random init
	Negative int     // negative samples per positive pair
	Epochs   int
	LR       float64 // initial learning rate, decayed linearly per epoch
	Seed     uint64
}

// Train runs SGD over the walk corpus and returns one embedding per
// vocabulary entry (vocabSize rows). Nodes below MinCount are not
// trained but still receive a row, preserving positional alignment
// with the graph's node order.
func (s SkipGram) Train(walks [][]int, vocabSize int) [][]float32 {
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x51afd54c0e2b1441))

	counts := make([]int, vocabSize)
	for _, walk := range walks {
		for _, node := range walk {
			counts[node]++
		}
	}

	// Unigram^0.75 cumulative table for negative sampling.
	cum := make([]float64, vocabSize)
	total := 0.0
	for i, c := range counts {
		total += math.Pow(float64(c), 0.75)
		cum[i] = total
	}

	// Random init in [-0.5/dim, 0.5/dim), word2vec style.
	syn0 := make([][]float32, vocabSize) // input (the embeddings)
	syn1 := make([][]float32, vocabSize) // output weights
	for i := 0; i < vocabSize; i++ {
		syn0[i] = make([]float32, s.Dim)
		syn1[i] = make([]float32, s.Dim)
		for d := 0; d < s.Dim; d++ {
			syn0[i][d] = (rng.Float32() - 0.5) / float32(s.Dim)
		}
	}

	sampleNegative := func() int {
		if total == 0 {
			return rng.IntN(vocabSize)
		}
		r := rng.Float64() * total
		return sort.SearchFloat64s(cum, r)
	}

	grad := make([]float32, s.Dim)

	for epoch := 0; epoch < s.Epochs; epoch++ {
		lr := s.LR * (1 - float64(epoch)/float64(s.Epochs))
		if lr < s.LR*0.0001 {
			lr = s.LR * 0.0001
		}

		for _, walk := range walks {
			for i, center := range walk {
				if counts[center] < s.MinCount {
					continue
				}

				// Dynamic window, as in word2vec: radius in [1, Window].
				radius := rng.IntN(s.Window) + 1
				for j := i - radius; j <= i+radius; j++ {
					if j < 0 || j >= len(walk) || j == i {
						continue
					}
					context := walk[j]
					if counts[context] < s.MinCount {
						continue
					}
					s.trainPair(syn0[center], syn1, context, lr, grad, sampleNegative)
				}
			}
		}
	}

	return syn0
}

// trainPair applies one positive update and Negative sampled negative
// updates to the center vector via the output weights.
func (s SkipGram) trainPair(center []float32, syn1 [][]float32, context int, lr float64, grad []float32, sampleNegative func() int) {
	for d := range grad {
		grad[d] = 0
	}

	for n := 0; n <= s.Negative; n++ {
		var target int
		var label float32
		if n == 0 {
			target, label = context, 1
		} else {
			target, label = sampleNegative(), 0
			if target == context {
				continue
			}
		}

		out := syn1[target]
		var dot float32
		for d := range center {
			dot += center[d] * out[d]
		}
		g := (label - sigmoid(dot)) * float32(lr)

		for d := range center {
			grad[d] += g * out[d]
			out[d] += g * center[d]
		}
	}

	for d := range center {
		center[d] += grad[d]
	}
}

func sigmoid(x float32) float32 {
	// Clip to avoid overflow; beyond |6| the gradient is negligible.
	if x > 6 {
		return 1
	}
	if x < -6 {
		return 0
	}
	return float32(1 / (1 + math.Exp(-float64(x))))
}
