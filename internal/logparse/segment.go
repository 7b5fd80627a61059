package logparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/user/hundred-acre-realm/internal/types"
)

// dayMarkerRe matches a whole trimmed day marker line, with an optional
// numeric prefix such as "12.", "12:", "12)" or "[12]"
var dayMarkerRe = regexp.MustCompile(`^(?:\[?\d+[.:)\]]?\s+)?(?:Month (\d+), Day (\d+)|Day (\d+)|Turn (\d+))\s*:?$`)

// Block is the slice of log text belonging to one day marker
type Block struct {
	Key   string
	Month int
	Day   int

	// Text starts with the marker line and keeps the original line endings
	Text string
}

// Blocks is the ordered output of Segment
type Blocks []Block

// parseMarker reports whether line is a day marker and returns its month and day
func parseMarker(line string) (month, day int, ok bool) {
	m := dayMarkerRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, 0, false
	}
	switch {
	case m[1] != "":
		month, _ = strconv.Atoi(m[1])
		day, _ = strconv.Atoi(m[2])
	case m[3] != "":
		day, _ = strconv.Atoi(m[3])
	default:
		day, _ = strconv.Atoi(m[4])
	}
	return month, day, true
}

// IsDayMarker reports whether the line starts a new day block
func IsDayMarker(line string) bool {
	_, _, ok := parseMarker(line)
	return ok
}

// Segment splits raw log text into per-day blocks in log order.
// Text before the first marker is discarded; no markers gives an empty result.
func Segment(text string) Blocks {
	blocks := make(Blocks, 0)
	var current *Block
	var sb strings.Builder

	flush := func() {
		if current != nil {
			current.Text = sb.String()
			blocks = append(blocks, *current)
		}
		sb.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if month, day, ok := parseMarker(line); ok {
			flush()
			current = &Block{
				Key:   types.DayKey(month, day),
				Month: month,
				Day:   day,
			}
		}
		if current != nil {
			sb.WriteString(line)
		}
	}
	flush()

	return blocks
}

// Join concatenates the block texts in order
func (b Blocks) Join() string {
	var sb strings.Builder
	for _, block := range b {
		sb.WriteString(block.Text)
	}
	return sb.String()
}

// DayBlocks is an ordered map of day key to the merged text of that day
type DayBlocks struct {
	keys   []string
	blocks map[string]*Block
}

// ByKey merges blocks that share a day key, keeping first-appearance order
func (b Blocks) ByKey() *DayBlocks {
	out := &DayBlocks{
		keys:   make([]string, 0, len(b)),
		blocks: make(map[string]*Block, len(b)),
	}
	for _, block := range b {
		if existing, ok := out.blocks[block.Key]; ok {
			existing.Text += block.Text
			continue
		}
		copied := block
		out.blocks[block.Key] = &copied
		out.keys = append(out.keys, block.Key)
	}
	return out
}

// Keys returns the day keys in log order
func (d *DayBlocks) Keys() []string {
	return append(make([]string, 0, len(d.keys)), d.keys...)
}

// Get returns the merged block for a day key
func (d *DayBlocks) Get(key string) (Block, bool) {
	block, ok := d.blocks[key]
	if !ok {
		return Block{}, false
	}
	return *block, true
}

// Len returns the number of distinct days
func (d *DayBlocks) Len() int {
	return len(d.keys)
}

// Lines turns block text into the day parser's input: trimmed, non-blank,
// with day marker lines removed
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || IsDayMarker(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
