// Package dataset builds, persists, and loads the training and per-country
// test matrices, the theme label list, and the country assignment file.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"theme-mapper/internal/domain"

	"gonum.org/v1/gonum/mat"
)

// maxLineBytes bounds a single matrix row on disk. A 50px photo row is
// roughly 8652 values of 25 characters.
const maxLineBytes = 64 << 20

// TrainingMatrix is a labeled feature matrix: row i of X has theme Y[i].
type TrainingMatrix struct {
	X      *mat.Dense
	Y      []int
	Labels *domain.LabelTable
}

// Rows returns the number of samples.
func (tm *TrainingMatrix) Rows() int {
	r, _ := tm.X.Dims()
	return r
}

// Width returns the feature vector length.
func (tm *TrainingMatrix) Width() int {
	_, c := tm.X.Dims()
	return c
}

// Subset returns a new matrix holding the given rows in order.
func (tm *TrainingMatrix) Subset(rows []int) *TrainingMatrix {
	out := &TrainingMatrix{
		X:      mat.NewDense(len(rows), tm.Width(), nil),
		Y:      make([]int, len(rows)),
		Labels: tm.Labels,
	}
	for i, r := range rows {
		out.X.SetRow(i, tm.X.RawRowView(r))
		out.Y[i] = tm.Y[r]
	}
	return out
}

// CountryMatrix holds the unlabeled feature rows of one country's photos.
type CountryMatrix struct {
	Country string
	Slug    string
	X       *mat.Dense
}

// Rows returns the number of photos.
func (cm *CountryMatrix) Rows() int {
	if cm.X == nil {
		return 0
	}
	r, _ := cm.X.Dims()
	return r
}

// DenseFromRows packs equal-length rows into a matrix.
func DenseFromRows(what string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, &domain.EmptyInputError{What: what}
	}
	width := len(rows[0])
	if width == 0 {
		return nil, &domain.EmptyInputError{What: what + " row"}
	}
	data := make([]float64, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, &domain.ShapeMismatchError{What: fmt.Sprintf("%s row %d", what, i), Want: width, Got: len(r)}
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), width, data), nil
}

// WriteMatrix writes m in numpy savetxt format: one space-separated row per
// line, each value as %.18e.
func WriteMatrix(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	r, c := m.Dims()
	buf := make([]byte, 0, 32)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				w.WriteByte(' ')
			}
			buf = strconv.AppendFloat(buf[:0], m.At(i, j), 'e', 18, 64)
			w.Write(buf)
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ReadMatrix reads a whitespace-separated numeric matrix. Blank lines and
// lines starting with '#' are skipped.
func ReadMatrix(path string) (*mat.Dense, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := scanRows(f, path)
	if err != nil {
		return nil, err
	}
	return DenseFromRows(path, rows)
}

func scanRows(r io.Reader, path string) ([][]float64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), maxLineBytes)

	var rows [][]float64
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: column %d: %w", path, line, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// WriteIndices writes one theme index per line, in the same float format as
// WriteMatrix.
func WriteIndices(path string, y []int) error {
	col := mat.NewDense(len(y), 1, nil)
	for i, v := range y {
		col.Set(i, 0, float64(v))
	}
	return WriteMatrix(path, col)
}

// ReadIndices reads a single column of integral theme indices.
func ReadIndices(path string) ([]int, error) {
	m, err := ReadMatrix(path)
	if err != nil {
		return nil, err
	}
	r, c := m.Dims()
	if c != 1 {
		return nil, &domain.ShapeMismatchError{What: path + " columns", Want: 1, Got: c}
	}
	out := make([]int, r)
	for i := 0; i < r; i++ {
		v := m.At(i, 0)
		if v != float64(int(v)) {
			return nil, fmt.Errorf("%s:%d: non-integral theme index %v", path, i+1, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// WriteLabels writes one theme label per line in index order.
func WriteLabels(path string, labels *domain.LabelTable) error {
	var sb strings.Builder
	for _, l := range labels.Labels() {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// ReadLabels reads the theme label list written by WriteLabels.
func ReadLabels(path string) (*domain.LabelTable, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, l := range strings.Split(string(data), "\n") {
		l = strings.TrimRight(l, "\r")
		if l == "" {
			continue
		}
		labels = append(labels, l)
	}
	tbl, err := domain.NewLabelTable(labels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.MissingFileError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.MissingFileError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
