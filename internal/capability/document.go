package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadResumeName is the capability name for document extraction.
const ReadResumeName = "read_resume"

// ErrUnsupportedFormat is returned for resumes that are not plain text or markdown.
var ErrUnsupportedFormat = errors.New("unsupported resume format")

const (
	defaultChunkSize = 800
	defaultTopChunks = 4
)

// Document serves searchable chunks of a plain text or markdown resume.
type Document struct {
	path   string
	chunks []string
	top    int
}

// LoadDocument reads path and splits it into paragraph chunks of roughly
// chunkSize characters. A chunkSize of zero uses the default.
func LoadDocument(path string, chunkSize int) (*Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md", ".markdown", "":
	case ".pdf":
		return nil, fmt.Errorf("%w %q: PDF is not read directly, convert it first (for example: pdftotext -layout %s resume.txt) and pass the .txt or .md file",
			ErrUnsupportedFormat, ext, path)
	default:
		return nil, fmt.Errorf("%w %q: convert it to .txt or .md", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("resume %s is empty", path)
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Document{
		path:   path,
		chunks: Chunk(string(data), chunkSize),
		top:    defaultTopChunks,
	}, nil
}

// Chunk splits text on blank lines and packs paragraphs into chunks no
// longer than size, except where a single paragraph is already longer.
func Chunk(text string, size int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(para)+2 > size {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	flush()
	return chunks
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// Chunks returns the document chunks in file order.
func (d *Document) Chunks() []string { return append([]string(nil), d.chunks...) }

func (d *Document) Name() string { return ReadResumeName }

func (d *Document) Description() string {
	return "Searches the candidate's resume. Returns the passages most relevant to the query, or the whole resume when the query is empty."
}

func (d *Document) Parameters() Parameters {
	return Parameters{
		Properties: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to look for, e.g. 'skills' or 'projects'",
			},
		},
	}
}

func (d *Document) Invoke(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := decodeInput(ReadResumeName, input, &in); err != nil {
		return "", err
	}
	return strings.Join(d.Search(in.Query), "\n\n---\n\n"), nil
}

// Search returns the chunks sharing the most terms with query, in file order.
// A blank query, or one matching nothing, returns every chunk.
func (d *Document) Search(query string) []string {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return d.Chunks()
	}

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i, c := range d.chunks {
		lower := strings.ToLower(c)
		score := 0
		for _, t := range terms {
			score += strings.Count(lower, t)
		}
		if score > 0 {
			hits = append(hits, scored{i, score})
		}
	}
	if len(hits) == 0 {
		return d.Chunks()
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > d.top {
		hits = hits[:d.top]
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].idx < hits[b].idx })

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = d.chunks[h.idx]
	}
	return out
}
