package quality

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDigest/internal/model"
)

func TestGradeBandsAreInclusiveLower(t *testing.T) {
	tests := []struct {
		score float64
		grade string
	}{
		{100, "A"},
		{90, "A"},
		{89.999, "B"},
		{80, "B"},
		{70, "C"},
		{69.9, "D"},
		{60, "D"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.grade, Grade(tt.score), "score %v", tt.score)
	}
}

func TestGradeRankOrdering(t *testing.T) {
	assert.Greater(t, GradeRank("A"), GradeRank("B"))
	assert.Greater(t, GradeRank("D"), GradeRank("F"))
	assert.Less(t, GradeRank("?"), GradeRank("F"))
}

func TestScoreClassifiesLeaves(t *testing.T) {
	tree := FromValue(map[string]any{
		"price":   105.0,
		"symbol":  "GC=F",
		"missing": nil,
		"msg":     "Error fetching data for GC=F",
		"shout":   "upstream ERROR",
		"nan":     math.NaN(),
		"inf":     math.Inf(-1),
		"ok":      true,
		"count":   3,
		"series":  []any{1.0, nil, map[string]any{"close": 2.0}},
	})

	report := Score(tree)

	assert.Equal(t, 12, report.TotalFields)
	assert.Equal(t, 6, report.ValidFields)
	assert.Equal(t, 6, report.ErrorFields)
	assert.InDelta(t, 50.0, report.QualityScore, 1e-9)
	assert.Equal(t, "F", report.QualityGrade)
}

func TestScoreEmptyTree(t *testing.T) {
	report := Score(FromValue(map[string]any{}))

	assert.Zero(t, report.TotalFields)
	assert.Zero(t, report.QualityScore)
	assert.Equal(t, "F", report.QualityGrade)

	assert.Zero(t, Score(nil).TotalFields)
}

func TestScoreDepthBound(t *testing.T) {
	var deep any = 1.0
	for i := 0; i < MaxDepth+5; i++ {
		deep = map[string]any{"nested": deep}
	}

	report := Score(FromValue(deep))

	assert.Equal(t, 1, report.TotalFields)
	assert.Equal(t, 1, report.ErrorFields)

	var shallow any = 1.0
	for i := 0; i < MaxDepth; i++ {
		shallow = []any{shallow}
	}
	report = Score(FromValue(shallow))
	assert.Equal(t, 1, report.ValidFields)
}

func TestScoreAccountingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	leaves := []any{1.0, "fine", nil, "error", math.NaN(), true, 0.0}

	var build func(depth int) any
	build = func(depth int) any {
		if depth > 4 || rng.Intn(3) == 0 {
			return leaves[rng.Intn(len(leaves))]
		}
		if rng.Intn(2) == 0 {
			m := map[string]any{}
			for i := 0; i < rng.Intn(4); i++ {
				m[string(rune('a'+i))] = build(depth + 1)
			}
			return m
		}
		s := []any{}
		for i := 0; i < rng.Intn(4); i++ {
			s = append(s, build(depth+1))
		}
		return s
	}

	for i := 0; i < 200; i++ {
		report := Score(FromValue(build(0)))
		require.Equal(t, report.TotalFields, report.ValidFields+report.ErrorFields)
		require.GreaterOrEqual(t, report.QualityScore, 0.0)
		require.LessOrEqual(t, report.QualityScore, 100.0)
		require.Equal(t, Grade(report.QualityScore), report.QualityGrade)
	}
}

func TestScoreSnapshotAllErrorsGradesF(t *testing.T) {
	snap := &model.Snapshot{
		Timestamp: "2025-01-02T03:04:05Z",
		Categories: map[string]model.CategoryBlock{
			model.CategoryFX: {
				Timestamp: "2025-01-02T03:04:05Z",
				Quotes: map[string]model.Quote{
					"usd_vnd": model.ErrorQuote("Error fetching data for USDVND=X: timeout"),
					"eur_usd": model.ErrorQuote("Error fetching data for EURUSD=X: timeout"),
				},
			},
		},
	}

	report := ScoreSnapshot(snap)

	// two error messages plus two valid timestamps
	assert.Equal(t, 4, report.TotalFields)
	assert.Equal(t, 2, report.ErrorFields)
	assert.Equal(t, "F", report.QualityGrade)
}

func TestScoreSnapshotCountsNullHistory(t *testing.T) {
	q := model.NewQuote(model.Observation{
		Symbol:       "GC=F",
		CurrentPrice: 100,
		Timestamp:    "2025-01-02T03:04:05Z",
		History:      []model.Point{{Date: "2025-01-02"}},
	})
	snap := &model.Snapshot{
		Timestamp: "2025-01-02T03:04:05Z",
		Categories: map[string]model.CategoryBlock{
			model.CategoryPreciousMetals: {Timestamp: "2025-01-02T03:04:05Z", Quotes: map[string]model.Quote{"gold": q}},
		},
	}

	report := ScoreSnapshot(snap)

	// symbol, current_price, timestamp, date + 5 null point fields, two block/snapshot timestamps
	assert.Equal(t, 11, report.TotalFields)
	assert.Equal(t, 5, report.ErrorFields)
}
