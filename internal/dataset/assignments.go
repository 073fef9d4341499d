package dataset

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"theme-mapper/internal/domain"
)

// WriteAssignments writes one `<country>:<theme>` line per country, sorted by
// country name.
func WriteAssignments(path string, assignments map[string]string) error {
	countries := make([]string, 0, len(assignments))
	for c, th := range assignments {
		if !domain.ValidName(c) {
			return fmt.Errorf("country name %q cannot be written", c)
		}
		if !domain.ValidName(th) {
			return fmt.Errorf("theme %q for %s cannot be written", th, c)
		}
		countries = append(countries, c)
	}
	sort.Strings(countries)

	var sb strings.Builder
	for _, c := range countries {
		sb.WriteString(c)
		sb.WriteByte(':')
		sb.WriteString(assignments[c])
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// ReadAssignments reads a file written by WriteAssignments.
func ReadAssignments(path string) (map[string]string, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		country, theme, ok := strings.Cut(text, ":")
		if !ok || country == "" || theme == "" || strings.Contains(theme, ":") {
			return nil, fmt.Errorf("%s:%d: malformed assignment %q", path, line, text)
		}
		out[country] = theme
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return out, nil
}
