package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultMaxTokens bounds the token count of a single chunk so each
	// vector stays representative of a limited span of text.
	DefaultMaxTokens = 256
	// DefaultOverlapTokens is the token overlap carried between
	// consecutive chunks split from one oversized paragraph.
	DefaultOverlapTokens = 32

	defaultEncoding = "cl100k_base"
)

var paragraphSplitRe = regexp.MustCompile(`\n{2,}`)

// ChunkerConfig controls how documents are split.
type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
	// Encoding names the tiktoken encoding used for counting
	// (default cl100k_base).
	Encoding string
}

func (c *ChunkerConfig) defaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = 0
	}
	if c.OverlapTokens == 0 {
		c.OverlapTokens = DefaultOverlapTokens
	}
	if c.OverlapTokens >= c.MaxTokens {
		c.OverlapTokens = c.MaxTokens / 4
	}
	if c.Encoding == "" {
		c.Encoding = defaultEncoding
	}
}

// Chunker splits document text into token-bounded chunks. Paragraphs
// are packed greedily; a paragraph longer than the budget is split on
// token boundaries with overlap.
type Chunker struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
	overlap   int
}

// NewChunker creates a Chunker with the given configuration.
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	cfg.defaults()

	enc, err := tiktoken.GetEncoding(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %q: %w", cfg.Encoding, err)
	}
	return &Chunker{
		enc:       enc,
		maxTokens: cfg.MaxTokens,
		overlap:   cfg.OverlapTokens,
	}, nil
}

// CountTokens reports the token count of text under the chunker's
// encoding.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Chunk splits text into chunks of at most MaxTokens tokens. Blank
// input yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentTokens = 0
		}
	}

	for _, para := range paragraphSplitRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		n := c.CountTokens(para)
		if n > c.maxTokens {
			flush()
			chunks = append(chunks, c.splitLong(para)...)
			continue
		}

		if currentTokens+n > c.maxTokens {
			flush()
		}
		current = append(current, para)
		currentTokens += n
	}
	flush()

	return chunks
}

// splitLong cuts an oversized paragraph into token windows of
// maxTokens, each window starting overlap tokens before the end of the
// previous one.
func (c *Chunker) splitLong(para string) []string {
	tokens := c.enc.Encode(para, nil, nil)
	step := c.maxTokens - c.overlap

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.TrimSpace(c.enc.Decode(tokens[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
