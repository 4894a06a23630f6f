package archive

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/jotgrid/internal/models"
)

const delim = "---"

// frontMatter is the YAML header written above each note body.
type frontMatter struct {
	ID   int64  `yaml:"id,omitempty"`
	Date string `yaml:"date,omitempty"`
}

// Encode renders n as YAML front matter followed by the note text verbatim.
func Encode(n models.Note) ([]byte, error) {
	fm, err := yaml.Marshal(frontMatter{
		ID:   n.ID,
		Date: n.Date.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("archive: encode front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(fm)
	buf.WriteString(delim + "\n")
	buf.WriteString(n.Text)
	return buf.Bytes(), nil
}

// Decode parses a note file. Files without front matter, or with front
// matter that is not valid YAML, become a new note whose text is the whole
// file. hasDate reports whether the header carried a date.
func Decode(data []byte) (n models.Note, hasDate bool, err error) {
	header, body, ok := splitFrontMatter(data)
	if !ok {
		return models.Note{Text: string(data)}, false, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return models.Note{Text: string(data)}, false, nil
	}
	n = models.Note{ID: fm.ID, Text: body}
	if fm.Date != "" {
		if n.Date, err = time.Parse(time.RFC3339Nano, fm.Date); err != nil {
			return models.Note{}, false, fmt.Errorf("archive: parse date %q: %w", fm.Date, err)
		}
		hasDate = true
	}
	if n.ID < 0 {
		return models.Note{}, false, fmt.Errorf("archive: negative id %d", n.ID)
	}
	return n, hasDate, nil
}

// splitFrontMatter separates the YAML block between leading --- lines from
// the body. Exactly one newline after the closing delimiter is consumed.
func splitFrontMatter(data []byte) (header []byte, body string, ok bool) {
	if !bytes.HasPrefix(data, []byte(delim+"\n")) {
		return nil, "", false
	}
	rest := data[len(delim)+1:]

	var idx int
	if bytes.HasPrefix(rest, []byte(delim)) {
		idx = 0
	} else {
		idx = bytes.Index(rest, []byte("\n"+delim))
		if idx < 0 {
			return nil, "", false
		}
		idx++
	}
	header = rest[:idx]
	after := rest[idx+len(delim):]
	switch {
	case bytes.HasPrefix(after, []byte("\r\n")):
		after = after[2:]
	case bytes.HasPrefix(after, []byte("\n")):
		after = after[1:]
	case len(after) > 0:
		// "---" followed by other text is not a closing delimiter.
		return nil, "", false
	}
	return header, string(after), true
}
