// Package domain holds the shared types of the theme-mapper pipeline:
// themes and their label table, vote tallies, per-country assignments, and
// the error taxonomy used across packages.
package domain

import (
	"fmt"
	"strings"
)

// Theme is a tourist category identified by a stable index and a label.
type Theme struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

func (t Theme) String() string {
	return t.Label
}

// LabelTable maps theme indices to labels and back. It is fixed once built
// and is safe to share by pointer.
type LabelTable struct {
	labels []string
	index  map[string]int
}

// NewLabelTable builds a table where labels[i] is the label of theme i.
func NewLabelTable(labels []string) (*LabelTable, error) {
	if len(labels) == 0 {
		return nil, &EmptyInputError{What: "label table"}
	}

	t := &LabelTable{
		labels: make([]string, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return nil, fmt.Errorf("label %d is blank", i)
		}
		if !ValidName(l) {
			return nil, fmt.Errorf("label %q contains ':' or a line break", l)
		}
		if _, dup := t.index[l]; dup {
			return nil, fmt.Errorf("duplicate label %q", l)
		}
		t.labels[i] = l
		t.index[l] = i
	}
	return t, nil
}

// Len returns the number of themes.
func (t *LabelTable) Len() int {
	return len(t.labels)
}

// Label returns the label of theme i.
func (t *LabelTable) Label(i int) (string, bool) {
	if i < 0 || i >= len(t.labels) {
		return "", false
	}
	return t.labels[i], true
}

// Index returns the index of the theme with the given label.
func (t *LabelTable) Index(label string) (int, bool) {
	i, ok := t.index[label]
	return i, ok
}

// Theme returns theme i, or ErrUnknownTheme.
func (t *LabelTable) Theme(i int) (Theme, error) {
	l, ok := t.Label(i)
	if !ok {
		return Theme{}, fmt.Errorf("%w: index %d of %d", ErrUnknownTheme, i, len(t.labels))
	}
	return Theme{Index: i, Label: l}, nil
}

// Labels returns a copy of the labels in index order.
func (t *LabelTable) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// ValidName reports whether s can be stored in a `<country>:<theme>` line:
// non-empty, with no ':' and no line break. '\r' counts as a line break.
func ValidName(s string) bool {
	return s != "" && !strings.ContainsAny(s, ":\r\n")
}
