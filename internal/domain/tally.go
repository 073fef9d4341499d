package domain

// Tally counts how many photos of a country were predicted into each theme.
// Counts is aligned with the LabelTable the tally was built against.
type Tally struct {
	Counts []int `json:"counts"`
}

// Total returns the number of votes in the tally.
func (t Tally) Total() int {
	n := 0
	for _, c := range t.Counts {
		n += c
	}
	return n
}

// Proportions returns each theme's share of the votes. An empty tally yields
// all zeros.
func (t Tally) Proportions() []float64 {
	out := make([]float64, len(t.Counts))
	total := t.Total()
	if total == 0 {
		return out
	}
	for i, c := range t.Counts {
		out[i] = float64(c) / float64(total)
	}
	return out
}

// Max returns the highest count.
func (t Tally) Max() int {
	m := 0
	for _, c := range t.Counts {
		if c > m {
			m = c
		}
	}
	return m
}

// Assignment is the dominant theme chosen for a country.
type Assignment struct {
	Country string `json:"country"`
	Theme   Theme  `json:"theme"`
}
