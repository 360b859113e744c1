package report

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/ironsheep/edge-sweep/internal/imaging"
	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// DefaultNameTemplate names masks after their position, thresholds and label.
const DefaultNameTemplate = "{{.Index}}_canny_{{.Low}}_{{.High}}_{{.Label}}.png"

// ErrNameCollision is returned when two results would be written to the same file.
var ErrNameCollision = errors.New("output filename collision")

// NameData is the value the filename template is executed with.
type NameData struct {
	Index int    // 1-based position in the sweep
	Low   string // low threshold, shortest decimal form
	High  string // high threshold, shortest decimal form
	Label string // sanitised case label; "case<Index>" when empty
}

// Namer turns EdgeResults into output filenames.
type Namer struct {
	tmpl *template.Template
}

// NewNamer parses pattern as a text/template. The rendered names must end in
// an extension imaging.Save understands.
func NewNamer(pattern string) (*Namer, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultNameTemplate
	}
	tmpl, err := template.New("name").Option("missingkey=error").Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid name template %q: %w", pattern, err)
	}
	n := &Namer{tmpl: tmpl}

	probe, err := n.render(NameData{Index: 1, Low: "1", High: "2", Label: "probe"})
	if err != nil {
		return nil, err
	}
	if _, err := imaging.EncoderFor(probe); err != nil {
		return nil, fmt.Errorf("name template %q: %w", pattern, err)
	}
	return n, nil
}

// Name renders the filename of one result.
func (n *Namer) Name(res sweep.EdgeResult) (string, error) {
	label := SanitizeLabel(res.Case.Label)
	if label == "" {
		label = fmt.Sprintf("case%d", res.Index)
	}
	return n.render(NameData{
		Index: res.Index,
		Low:   FormatThreshold(res.Case.Pair.Low),
		High:  FormatThreshold(res.Case.Pair.High),
		Label: label,
	})
}

// Names renders every filename and fails if any two are equal.
func (n *Namer) Names(results []sweep.EdgeResult) ([]string, error) {
	names := make([]string, len(results))
	seen := make(map[string]int, len(results))
	for i, res := range results {
		name, err := n.Name(res)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q for pairs %s and %s",
				ErrNameCollision, name, results[prev].Case.Pair, res.Case.Pair)
		}
		seen[name] = i
		names[i] = name
	}
	return names, nil
}

func (n *Namer) render(data NameData) (string, error) {
	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render filename: %w", err)
	}
	name := strings.TrimSpace(buf.String())
	if name == "" {
		return "", errors.New("name template rendered an empty filename")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("filename %q must not contain path separators", name)
	}
	return name, nil
}

// SanitizeLabel makes a case label safe for a filename: whitespace becomes
// '_' and path separators are dropped.
func SanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return -1
		case ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, label)
}

// FormatThreshold prints a threshold in its shortest exact decimal form
// ("100", "12.5").
func FormatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
