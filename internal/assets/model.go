package assets

import (
	"encoding/json"
	"fmt"
	"math"
)

// Predictor is the trained regression model, opaque beyond its declared
// input schema. Feature vectors must match Schema() in length and order.
type Predictor interface {
	// Predict scores one feature vector.
	Predict(features []float64) (float64, error)
	// Schema returns the ordered feature names the model was trained with.
	Schema() []string
}

// TreeModel is a gradient-boosted regression tree ensemble exported as
// a JSON artifact by the training pipeline. Scoring sums the leaf value
// of every tree plus the base score.
type TreeModel struct {
	BaseScore    float64  `json:"base_score"`
	FeatureNames []string `json:"feature_names"`
	Trees        []Tree   `json:"trees"`
}

// Tree is one regression tree as a flat node array. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split or leaf. Leaf nodes carry the output value and have
// negative child indices.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// ParseTreeModel decodes and validates a model artifact.
func ParseTreeModel(data []byte) (*TreeModel, error) {
	var m TreeModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(m.FeatureNames) == 0 {
		return nil, fmt.Errorf("model artifact declares no feature schema")
	}
	if len(m.Trees) == 0 {
		return nil, fmt.Errorf("model artifact contains no trees")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.FeatureNames) {
				return nil, fmt.Errorf("tree %d node %d references feature %d outside schema", ti, ni, n.Feature)
			}
			if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
				return nil, fmt.Errorf("tree %d node %d has out-of-range children", ti, ni)
			}
		}
	}
	return &m, nil
}

func (m *TreeModel) Schema() []string { return m.FeatureNames }

func (m *TreeModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.FeatureNames) {
		return 0, fmt.Errorf("feature vector length %d does not match model schema length %d",
			len(features), len(m.FeatureNames))
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %q is not finite", m.FeatureNames[i])
		}
	}

	sum := m.BaseScore
	for i := range m.Trees {
		sum += m.Trees[i].score(features)
	}
	return sum, nil
}

func (t *Tree) score(features []float64) float64 {
	i := 0
	// Parse-time validation bounds the walk; a tree is at most len(Nodes) deep.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if features[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0
}
