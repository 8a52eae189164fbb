// Package pattern parses file name templates describing a series of files.
//
// A template is an ordinary file name with one or more bracketed blocks:
//
//	img_t<1-3>_z<01-10:3>.tif   numeric ranges, optional step
//	scan_<A-C>.png              single letter ranges
//	cell_<dapi,gfp,rfp>.tif     enumerations
//	plate<15>.tif               a single value
//
// Blocks are kept in the order they appear in the template.
package pattern

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMalformedPattern is returned for templates that cannot be parsed.
var ErrMalformedPattern = errors.New("malformed file pattern")

// MaxFiles is the largest number of file names a template may expand to.
const MaxFiles = 1 << 24

// Block is one varying segment of a template.
type Block struct {
	// Text is the raw block including its angle brackets.
	Text string

	// Prefix is the literal text between the previous block (or the start
	// of the file name) and this block.
	Prefix string

	// Numeric is false for enumerations and letter ranges.
	Numeric bool

	// First, Last and Step describe a numeric range. For non-numeric
	// blocks they index into Elements.
	First, Last, Step int64

	// Count is the number of values the block takes.
	Count int

	// Fixed is true when the range bounds have the same width, meaning
	// every value is zero padded to Width.
	Fixed bool
	Width int

	elements []string
}

// Elements lists every value of the block as it appears in file names.
func (b Block) Elements() []string {
	if !b.Numeric {
		out := make([]string, len(b.elements))
		copy(out, b.elements)
		return out
	}
	out := make([]string, 0, b.Count)
	for i := 0; i < b.Count; i++ {
		out = append(out, b.Element(i))
	}
	return out
}

// Element returns the i'th value of the block.
func (b Block) Element(i int) string {
	if !b.Numeric {
		return b.elements[i]
	}
	v := b.First + int64(i)*b.Step
	s := strconv.FormatInt(v, 10)
	if b.Fixed && len(s) < b.Width {
		s = strings.Repeat("0", b.Width-len(s)) + s
	}
	return s
}

// Pattern is a parsed file name template.
type Pattern struct {
	pattern string
	blocks  []Block
	start   []int
	end     []int
}

// Parse parses a template. Unmatched or misordered brackets, empty blocks,
// non-numeric ranges with a step, inverted ranges and templates naming more
// than MaxFiles files are rejected.
func Parse(s string) (*Pattern, error) {
	var lt, gt []int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			lt = append(lt, i)
		case '>':
			gt = append(gt, i)
		}
	}
	if len(lt) != len(gt) {
		return nil, fmt.Errorf("%w: mismatched block markers in %q", ErrMalformedPattern, s)
	}

	p := &Pattern{
		pattern: s,
		blocks:  make([]Block, len(lt)),
		start:   make([]int, len(lt)),
		end:     make([]int, len(lt)),
	}
	for i := range lt {
		if i > 0 && lt[i] < p.end[i-1] {
			return nil, fmt.Errorf("%w: bad block marker order in %q", ErrMalformedPattern, s)
		}
		if gt[i] <= lt[i] {
			return nil, fmt.Errorf("%w: bad block marker order in %q", ErrMalformedPattern, s)
		}
		p.start[i] = lt[i]
		p.end[i] = gt[i] + 1
	}

	total := 1
	for i := range p.blocks {
		b, err := parseBlock(s[p.start[i]:p.end[i]])
		if err != nil {
			return nil, err
		}
		if b.Count > MaxFiles/total {
			return nil, fmt.Errorf("%w: %q names more than %d files", ErrMalformedPattern, s, MaxFiles)
		}
		total *= b.Count
		b.Prefix = p.prefix(i)
		p.blocks[i] = b
	}
	return p, nil
}

func parseBlock(text string) (Block, error) {
	inner := text[1 : len(text)-1]
	b := Block{Text: text}
	if strings.TrimSpace(inner) == "" {
		return b, fmt.Errorf("%w: empty block %s", ErrMalformedPattern, text)
	}

	if strings.Contains(inner, ",") {
		if strings.ContainsAny(inner, ":") {
			return b, fmt.Errorf("%w: step in enumeration %s", ErrMalformedPattern, text)
		}
		for _, e := range strings.Split(inner, ",") {
			e = strings.TrimSpace(e)
			if e == "" {
				return b, fmt.Errorf("%w: empty element in %s", ErrMalformedPattern, text)
			}
			b.elements = append(b.elements, e)
		}
		return enumerated(b), nil
	}

	first, last, step := inner, inner, ""
	if dash := strings.Index(inner, "-"); dash >= 0 {
		first = inner[:dash]
		last = inner[dash+1:]
		if colon := strings.Index(last, ":"); colon >= 0 {
			step = last[colon+1:]
			last = last[:colon]
		}
	} else if strings.Contains(inner, ":") {
		return b, fmt.Errorf("%w: step without range in %s", ErrMalformedPattern, text)
	}

	if isLetter(first) && isLetter(last) {
		if step != "" {
			return b, fmt.Errorf("%w: step in non-numeric range %s", ErrMalformedPattern, text)
		}
		if first[0] > last[0] {
			return b, fmt.Errorf("%w: begin after end in %s", ErrMalformedPattern, text)
		}
		for c := first[0]; c <= last[0]; c++ {
			b.elements = append(b.elements, string(c))
		}
		return enumerated(b), nil
	}

	if step == "" {
		step = "1"
	}
	var err error
	if b.First, err = strconv.ParseInt(first, 10, 64); err != nil {
		return b, fmt.Errorf("%w: invalid range value in %s", ErrMalformedPattern, text)
	}
	if b.Last, err = strconv.ParseInt(last, 10, 64); err != nil {
		return b, fmt.Errorf("%w: invalid range value in %s", ErrMalformedPattern, text)
	}
	if b.Step, err = strconv.ParseInt(step, 10, 64); err != nil {
		return b, fmt.Errorf("%w: invalid step in %s", ErrMalformedPattern, text)
	}
	if b.First < 0 || b.First > b.Last {
		return b, fmt.Errorf("%w: begin after end in %s", ErrMalformedPattern, text)
	}
	if b.Step < 1 {
		return b, fmt.Errorf("%w: step must be at least one in %s", ErrMalformedPattern, text)
	}
	b.Numeric = true
	n := (b.Last-b.First)/b.Step + 1
	if n > MaxFiles {
		return b, fmt.Errorf("%w: %s names more than %d files", ErrMalformedPattern, text, MaxFiles)
	}
	b.Count = int(n)
	b.Fixed = len(first) == len(last)
	b.Width = len(last)
	return b, nil
}

func enumerated(b Block) Block {
	b.First = 0
	b.Last = int64(len(b.elements) - 1)
	b.Step = 1
	b.Count = len(b.elements)
	return b
}

func isLetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// String returns the template text.
func (p *Pattern) String() string { return p.pattern }

// Len is the number of blocks.
func (p *Pattern) Len() int { return len(p.blocks) }

// Block returns the i'th block.
func (p *Pattern) Block(i int) Block { return p.blocks[i] }

// Blocks returns a copy of all blocks, left to right.
func (p *Pattern) Blocks() []Block {
	out := make([]Block, len(p.blocks))
	copy(out, p.blocks)
	return out
}

// Prefix returns the file name text before the first block. Without
// blocks it is the file name without its extension.
func (p *Pattern) Prefix() string {
	s := strings.LastIndexByte(p.pattern, filepath.Separator) + 1
	var e int
	if len(p.start) > 0 {
		e = p.start[0]
	} else {
		dot := strings.LastIndexByte(p.pattern, '.')
		e = len(p.pattern)
		if dot >= s {
			e = dot
		}
	}
	if s > e {
		return ""
	}
	return p.pattern[s:e]
}

// Suffix returns the text after the last block.
func (p *Pattern) Suffix() string {
	if len(p.end) == 0 {
		return p.pattern
	}
	return p.pattern[p.end[len(p.end)-1]:]
}

func (p *Pattern) prefix(i int) string {
	s := strings.LastIndexByte(p.pattern, filepath.Separator) + 1
	if i > 0 {
		s = p.end[i-1]
	}
	e := p.start[i]
	if s > e {
		return ""
	}
	return p.pattern[s:e]
}

// Files expands the template into every file name it describes. The first
// block is outermost and the last block varies fastest.
func (p *Pattern) Files() []string {
	total := 1
	for _, b := range p.blocks {
		total *= b.Count
	}
	files := make([]string, 0, total)
	var build func(i int, acc string)
	build = func(i int, acc string) {
		if i == len(p.blocks) {
			files = append(files, acc+p.Suffix())
			return
		}
		lead := p.pattern[:p.start[0]]
		if i > 0 {
			lead = p.pattern[p.end[i-1]:p.start[i]]
		}
		for j := 0; j < p.blocks[i].Count; j++ {
			build(i+1, acc+lead+p.blocks[i].Element(j))
		}
	}
	if len(p.blocks) == 0 {
		return []string{p.pattern}
	}
	build(0, "")
	return files
}
