package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Training errors.
var (
	ErrNoExamples       = errors.New("no training examples")
	ErrSingleClass      = errors.New("training labels contain a single class")
	ErrDimensionMismatch = errors.New("feature vector width does not match model")
)

// Params are the boosting hyperparameters.
type Params struct {
	NumTrees     int     `json:"num_trees"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
	MinLeaf      int     `json:"min_leaf"`
	Lambda       float64 `json:"lambda"`
}

// DefaultParams returns sane boosting defaults.
func DefaultParams() Params {
	return Params{NumTrees: 200, MaxDepth: 4, LearningRate: 0.05, MinLeaf: 20, Lambda: 1.0}
}

// Classifier is a gradient-boosted binary classifier trained with
// logistic loss. Missing feature values route through learned default
// directions, so no imputation happens anywhere.
type Classifier struct {
	Params       Params   `json:"params"`
	FeatureNames []string `json:"feature_names"`
	BaseScore    float64  `json:"base_score"` // log-odds prior
	Trees        []Tree   `json:"trees"`
}

// Train fits a classifier on a dense matrix (NaN marks missing). Column
// order must match featureNames; that order is the stable contract
// between training and inference.
func Train(x [][]float64, y []bool, featureNames []string, params Params) (*Classifier, error) {
	n := len(x)
	if n == 0 {
		return nil, ErrNoExamples
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d rows vs %d labels", ErrDimensionMismatch, n, len(y))
	}

	pos := 0
	for _, label := range y {
		if label {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return nil, ErrSingleClass
	}

	prior := float64(pos) / float64(n)
	base := math.Log(prior / (1 - prior))

	clf := &Classifier{
		Params:       params,
		FeatureNames: append([]string(nil), featureNames...),
		BaseScore:    base,
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = base
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	builder := &treeBuilder{
		x:        x,
		grad:     grad,
		hess:     hess,
		maxDepth: params.MaxDepth,
		minLeaf:  params.MinLeaf,
		lambda:   params.Lambda,
		shrink:   params.LearningRate,
	}

	for t := 0; t < params.NumTrees; t++ {
		for i := 0; i < n; i++ {
			p := sigmoid(scores[i])
			target := 0.0
			if y[i] {
				target = 1.0
			}
			grad[i] = p - target
			hess[i] = p * (1 - p)
		}

		tree := builder.build(indices)
		clf.Trees = append(clf.Trees, tree)
		for i := 0; i < n; i++ {
			scores[i] += tree.Predict(x[i])
		}
	}

	return clf, nil
}

// PredictProb returns the predicted win probability for one vector.
func (c *Classifier) PredictProb(x []float64) (float64, error) {
	if len(x) != len(c.FeatureNames) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), len(c.FeatureNames))
	}
	raw := c.BaseScore
	for i := range c.Trees {
		raw += c.Trees[i].Predict(x)
	}
	return sigmoid(raw), nil
}

// Save writes the model as JSON.
func (c *Classifier) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var c Classifier
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	return &c, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
