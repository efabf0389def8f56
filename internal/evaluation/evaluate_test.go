package evaluation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/refnet/fuserec/internal/vecindex"
)

// rankedFixture builds a train index of n orthogonal unit vectors and
// one test query whose similarity to train vector i decreases with i,
// so retrieval order is exactly train0, train1, train2, ...
func rankedFixture(t *testing.T, n int) (*vecindex.Flat, *vecindex.Registry, *vecindex.Flat, *vecindex.Registry) {
	t.Helper()

	train := vecindex.NewFlat(n)
	trainIDs := make([]string, n)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := make([]float32, n)
		v[i] = 1
		vectors[i] = v
		trainIDs[i] = fmt.Sprintf("train%d", i)
	}
	if err := train.Add(vectors); err != nil {
		t.Fatalf("Add train: %v", err)
	}

	query := make([]float32, n)
	for i := 0; i < n; i++ {
		query[i] = float32(n - i)
	}
	test := vecindex.NewFlat(n)
	if err := test.Add([][]float32{query}); err != nil {
		t.Fatalf("Add test: %v", err)
	}

	return train, vecindex.NewRegistry(trainIDs), test, vecindex.NewRegistry([]string{"q"})
}

func TestEvaluate_RecallSaturatesAcrossCutoffs(t *testing.T) {
	train, trainIDs, test, testIDs := rankedFixture(t, 25)

	// All three relevant papers sit inside the top 10.
	truth := map[string][]string{
		"q": {"train0", "train1", "train2"},
	}

	rows, err := Evaluate(train, trainIDs, test, testIDs, truth, []int{20, 10, 15}, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	wantPrecision := map[int]float64{10: 0.3, 15: 0.2, 20: 0.15}
	for i, wantK := range []int{10, 15, 20} {
		row := rows[i]
		if row.K != wantK {
			t.Fatalf("rows[%d].K = %d, want %d (ascending order)", i, row.K, wantK)
		}
		if row.Recall != 1.0 {
			t.Errorf("R@%d = %v, want 1.0", row.K, row.Recall)
		}
		if row.Precision != wantPrecision[row.K] {
			t.Errorf("P@%d = %v, want %v", row.K, row.Precision, wantPrecision[row.K])
		}
		if row.MeanAveragePrec != 1.0 {
			t.Errorf("MAP@%d = %v, want 1.0 (relevant at ranks 1..3)", row.K, row.MeanAveragePrec)
		}
		if row.QueriesEvaluated != 1 {
			t.Errorf("QueriesEvaluated = %d, want 1", row.QueriesEvaluated)
		}
	}
}

func TestEvaluate_SkipsEmptyGroundTruth(t *testing.T) {
	train, trainIDs, test, testIDs := rankedFixture(t, 5)

	rows, err := Evaluate(train, trainIDs, test, testIDs, map[string][]string{}, []int{3}, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rows[0].QueriesEvaluated != 0 {
		t.Errorf("QueriesEvaluated = %d, want 0 for all-empty ground truth", rows[0].QueriesEvaluated)
	}
	if rows[0].Precision != 0 || rows[0].Recall != 0 || rows[0].MeanAveragePrec != 0 {
		t.Errorf("row = %+v, want zero aggregates", rows[0])
	}
}

func TestEvaluate_RerankStaysWithinCandidates(t *testing.T) {
	train, trainIDs, test, testIDs := rankedFixture(t, 10)

	// train9 is the least similar candidate; a huge centrality score
	// must not pull it into a K=3 slice it was never retrieved into.
	truth := map[string][]string{"q": {"train9"}}
	scores := map[string]float64{"train9": 100}

	rows, err := Evaluate(train, trainIDs, test, testIDs, truth, []int{3}, Options{RerankScores: scores})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rows[0].Recall != 0 {
		t.Errorf("R@3 = %v, want 0: rerank must not expand the candidate set", rows[0].Recall)
	}
}

func TestEvaluate_RerankPromotesWithinSlice(t *testing.T) {
	train, trainIDs, test, testIDs := rankedFixture(t, 10)

	// train2 is retrieved at rank 3; boosting it to rank 1 lifts AP
	// from 1/3 to 1.
	truth := map[string][]string{"q": {"train2"}}

	base, err := Evaluate(train, trainIDs, test, testIDs, truth, []int{3}, Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if base[0].MeanAveragePrec != 0.3333 {
		t.Fatalf("baseline MAP@3 = %v, want 0.3333", base[0].MeanAveragePrec)
	}

	boosted, err := Evaluate(train, trainIDs, test, testIDs, truth, []int{3},
		Options{RerankScores: map[string]float64{"train2": 5}})
	if err != nil {
		t.Fatalf("Evaluate with rerank: %v", err)
	}
	if boosted[0].MeanAveragePrec != 1.0 {
		t.Errorf("reranked MAP@3 = %v, want 1.0", boosted[0].MeanAveragePrec)
	}
}

func TestEvaluate_NoKValues(t *testing.T) {
	train, trainIDs, test, testIDs := rankedFixture(t, 3)
	if _, err := Evaluate(train, trainIDs, test, testIDs, nil, nil, Options{}); err == nil {
		t.Error("Evaluate with no K values succeeded, want error")
	}
}

func TestRerank_StableOnMissingScores(t *testing.T) {
	ids := []string{"a", "b", "c"}
	got := Rerank(ids, map[string]float64{})
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("Rerank reordered unscored ids: got %v", got)
		}
	}
	if &got[0] == &ids[0] {
		t.Error("Rerank returned the input slice, want a copy")
	}
}

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder
	rows := []Row{
		{K: 10, Precision: 0.3, Recall: 1, MeanAveragePrec: 0.8542},
		{K: 20, Precision: 0.15, Recall: 1, MeanAveragePrec: 0.8542},
	}
	if err := WriteCSV(&sb, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "K,P@K,R@K,MAP@K\n" +
		"10,0.3000,1.0000,0.8542\n" +
		"20,0.1500,1.0000,0.8542\n"
	if sb.String() != want {
		t.Errorf("csv output:\n%s\nwant:\n%s", sb.String(), want)
	}
}
