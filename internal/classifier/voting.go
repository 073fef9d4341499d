package classifier

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Member is one weighted estimator of a Voting ensemble.
type Member struct {
	Model  Model
	Weight float64
}

// Voting averages the class probabilities of its members, weighted.
type Voting struct {
	members []Member
	fitted  bool
}

// NewVoting returns a soft voting ensemble. Members with zero weight are
// neither fit nor consulted.
func NewVoting(members ...Member) *Voting {
	return &Voting{members: members}
}

// Fit fits every member on the same data.
func (v *Voting) Fit(X mat.Matrix, y []int, classes int) error {
	if len(v.members) == 0 {
		return fmt.Errorf("voting ensemble has no members")
	}
	for i, m := range v.members {
		if m.Weight == 0 {
			continue
		}
		if err := m.Model.Fit(X, y, classes); err != nil {
			return fmt.Errorf("failed to fit voting member %d: %w", i, err)
		}
	}
	v.fitted = true
	return nil
}

// PredictProba returns sum(w_i P_i) / sum(w_i).
func (v *Voting) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !v.fitted {
		return nil, ErrNotTrained
	}
	var out *mat.Dense
	var total float64
	for i, m := range v.members {
		if m.Weight == 0 {
			continue
		}
		p, err := m.Model.PredictProba(X)
		if err != nil {
			return nil, fmt.Errorf("voting member %d: %w", i, err)
		}
		p.Scale(m.Weight, p)
		if out == nil {
			out = p
		} else {
			out.Add(out, p)
		}
		total += m.Weight
	}
	if out == nil {
		return nil, fmt.Errorf("voting weights are all zero")
	}
	out.Scale(1/total, out)
	return out, nil
}
