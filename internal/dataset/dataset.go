// Package dataset parses DBLP citation-network dumps into papers and
// reads/writes the JSON-lines corpus artifacts the pipeline trains on.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/refnet/fuserec/internal/paper"
)

// Stats summarizes one parse run.
type Stats struct {
	Parsed    int // populated papers kept
	Skipped   int // well-formed lines missing required fields
	Malformed int // lines that failed to decode
}

// Options tunes parsing.
type Options struct {
	// MinYear zeroes out publication years before it, which drops the
	// paper at the populated check. Zero keeps all years.
	MinYear int
}

// v10Record is one line of a DBLP v10 dump: authors are plain names.
type v10Record struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Year       int      `json:"year"`
	Abstract   string   `json:"abstract"`
	Venue      string   `json:"venue"`
	References []string `json:"references"`
}

// v12Record is one line of a DBLP v12 dump: authors are objects and
// the abstract arrives as an inverted index.
type v12Record struct {
	ID      json.Number `json:"id"`
	Title   string      `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Year            int `json:"year"`
	IndexedAbstract struct {
		IndexLength   int              `json:"IndexLength"`
		InvertedIndex map[string][]int `json:"InvertedIndex"`
	} `json:"indexed_abstract"`
	Venue struct {
		Raw string `json:"raw"`
	} `json:"venue"`
	References []json.Number `json:"references"`
}

// ParseV10 reads a DBLP v10 dump: one JSON object per line, possibly
// wrapped in JSON-array brackets with trailing commas. Malformed lines
// are counted and skipped, never fatal; dump files in the wild are
// routinely truncated or hand-edited. Papers missing any required
// field (id, title, authors, year, abstract, venue, references) are
// dropped.
func ParseV10(r io.Reader, opts Options) ([]*paper.Paper, Stats, error) {
	return parseLines(r, func(line []byte) (*paper.Paper, error) {
		var rec v10Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		p := &paper.Paper{
			ID:         rec.ID,
			Title:      rec.Title,
			Year:       rec.Year,
			Abstract:   rec.Abstract,
			Venue:      rec.Venue,
			References: rec.References,
		}
		for _, name := range rec.Authors {
			p.Authors = append(p.Authors, splitName(name))
		}
		return p, nil
	}, opts)
}

// ParseV12 reads a DBLP v12 dump, reconstructing abstracts from their
// inverted index. Numeric ids are kept as their decimal strings.
func ParseV12(r io.Reader, opts Options) ([]*paper.Paper, Stats, error) {
	return parseLines(r, func(line []byte) (*paper.Paper, error) {
		var rec v12Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		p := &paper.Paper{
			ID:       rec.ID.String(),
			Title:    rec.Title,
			Year:     rec.Year,
			Abstract: invertAbstract(rec.IndexedAbstract.IndexLength, rec.IndexedAbstract.InvertedIndex),
			Venue:    rec.Venue.Raw,
		}
		for _, a := range rec.Authors {
			if a.Name != "" {
				p.Authors = append(p.Authors, splitName(a.Name))
			}
		}
		for _, ref := range rec.References {
			p.References = append(p.References, ref.String())
		}
		return p, nil
	}, opts)
}

func parseLines(r io.Reader, parse func([]byte) (*paper.Paper, error), opts Options) ([]*paper.Paper, Stats, error) {
	var (
		papers []*paper.Paper
		seen   = make(map[string]int)
		stats  Stats
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.Trim(line, ",")
		if line == "" || strings.HasPrefix(line, "[") || strings.HasSuffix(line, "]") {
			continue
		}

		p, err := parse([]byte(line))
		if err != nil {
			stats.Malformed++
			continue
		}
		if opts.MinYear > 0 && p.Year < opts.MinYear {
			p.Year = 0
		}
		if p.ID == "" && populatedExceptID(p) {
			p.ID = uuid.NewString()
		}
		if !populated(p) {
			stats.Skipped++
			continue
		}

		// Later duplicates win, matching keyed-by-id ingestion.
		if pos, ok := seen[p.ID]; ok {
			papers[pos] = p
			continue
		}
		seen[p.ID] = len(papers)
		papers = append(papers, p)
		stats.Parsed++
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("reading dump: %w", err)
	}
	return papers, stats, nil
}

// populated reports whether every field the downstream models depend
// on is present.
func populated(p *paper.Paper) bool {
	return p.ID != "" && populatedExceptID(p)
}

func populatedExceptID(p *paper.Paper) bool {
	return p.Title != "" &&
		len(p.Authors) > 0 &&
		p.Year != 0 &&
		p.Abstract != "" &&
		p.Venue != "" &&
		len(p.References) > 0
}

// splitName splits a display name into first/last at the final space.
func splitName(name string) paper.Author {
	name = strings.TrimSpace(name)
	i := strings.LastIndex(name, " ")
	if i < 0 {
		return paper.Author{Last: name}
	}
	return paper.Author{First: name[:i], Last: name[i+1:]}
}

// invertAbstract rebuilds abstract text from a token -> positions map.
func invertAbstract(length int, inverted map[string][]int) string {
	if length <= 0 || len(inverted) == 0 {
		return ""
	}
	tokens := make([]string, length)
	for token, positions := range inverted {
		for _, pos := range positions {
			if pos >= 0 && pos < length {
				tokens[pos] = token
			}
		}
	}
	return strings.Join(tokens, " ")
}
