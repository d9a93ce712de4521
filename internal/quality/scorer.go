package quality

import (
	"math"
	"strings"

	"MarketDigest/internal/model"
)

// MaxDepth bounds how deep a walk descends. Anything nested further counts as one
// invalid leaf.
const MaxDepth = 20

// Grades, highest first, with their inclusive lower bounds.
var gradeBands = []struct {
	min   float64
	grade string
}{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

// Grade maps a 0-100 score to a letter.
func Grade(score float64) string {
	for _, band := range gradeBands {
		if score >= band.min {
			return band.grade
		}
	}
	return "F"
}

// GradeRank orders grades so "A" ranks highest. Unknown grades rank below "F".
func GradeRank(grade string) int {
	switch grade {
	case "A":
		return 4
	case "B":
		return 3
	case "C":
		return 2
	case "D":
		return 1
	case "F":
		return 0
	}
	return -1
}

type counter struct {
	depth int
	total int
	valid int
}

func (c *counter) VisitMap(m *Map) {
	if c.descend() {
		for _, n := range m.Values {
			n.Accept(c)
		}
		c.depth--
	}
}

func (c *counter) VisitSeq(s *Seq) {
	if c.descend() {
		for _, n := range s.Items {
			n.Accept(c)
		}
		c.depth--
	}
}

func (c *counter) VisitScalar(s *Scalar) {
	c.total++
	if validLeaf(s.Value) {
		c.valid++
	}
}

// descend enters a container, or counts it as an invalid leaf once past MaxDepth.
func (c *counter) descend() bool {
	if c.depth >= MaxDepth {
		c.total++
		return false
	}
	c.depth++
	return true
}

func validLeaf(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return !strings.Contains(strings.ToLower(v), "error")
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		f := float64(v)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return true
}

// Score walks root and grades the share of valid leaves.
func Score(root Node) model.QualityReport {
	c := &counter{}
	if root != nil {
		root.Accept(c)
	}

	var score float64
	if c.total > 0 {
		score = float64(c.valid) / float64(c.total) * 100
	}

	return model.QualityReport{
		TotalFields:  c.total,
		ValidFields:  c.valid,
		ErrorFields:  c.total - c.valid,
		QualityScore: score,
		QualityGrade: Grade(score),
	}
}

// ScoreSnapshot scores a snapshot as it serializes.
func ScoreSnapshot(snapshot *model.Snapshot) model.QualityReport {
	return Score(FromSnapshot(snapshot))
}
