package logparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `RealmSpeak 1.0
Host
New player joins: Alice

Month 1, Day 1
Amazon
Starts turn: Bad Valley 1
Amazon
Hide - Succeeded
Amazon
Ends turn: Bad Valley 1
Month 1, Day 2
Amazon
Starts turn: Bad Valley 1
Amazon
Ends turn: Bad Valley 4
`

func TestSegmentRoundTrip(t *testing.T) {
	blocks := Segment(sampleLog)
	require.Len(t, blocks, 2)

	preamble := sampleLog[:strings.Index(sampleLog, "Month 1, Day 1")]
	assert.Equal(t, strings.TrimPrefix(sampleLog, preamble), blocks.Join())

	assert.Equal(t, "1_1", blocks[0].Key)
	assert.Equal(t, 1, blocks[0].Month)
	assert.Equal(t, 1, blocks[0].Day)
	assert.Equal(t, "1_2", blocks[1].Key)
}

func TestSegmentKeepsCRLF(t *testing.T) {
	text := "junk\r\nDay 3\r\nline a\r\nDay 4\r\nline b"
	blocks := Segment(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, "Day 3\r\nline a\r\nDay 4\r\nline b", blocks.Join())
	assert.Equal(t, "3", blocks[0].Key)
	assert.Equal(t, 0, blocks[0].Month)
}

func TestSegmentNoMarkers(t *testing.T) {
	blocks := Segment("nothing\nto see\nhere\n")
	assert.Empty(t, blocks)
	assert.Equal(t, 0, blocks.ByKey().Len())
}

func TestSegmentMarkerFormats(t *testing.T) {
	tests := []struct {
		line string
		key  string
		ok   bool
	}{
		{"Month 2, Day 7", "2_7", true},
		{"Month 2, Day 7:", "2_7", true},
		{"Day 5", "5", true},
		{"Turn 12", "12", true},
		{"3. Month 1, Day 3", "1_3", true},
		{"[4] Day 4", "4", true},
		{"17) Turn 17", "17", true},
		{"Evening of Day 3 at Cliff 2", "", false},
		{"Daylight fades", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			blocks := Segment(tt.line + "\nbody\n")
			if !tt.ok {
				assert.Empty(t, blocks)
				return
			}
			require.Len(t, blocks, 1)
			assert.Equal(t, tt.key, blocks[0].Key)
		})
	}
}

func TestByKeyMergesRepeatedDays(t *testing.T) {
	text := "Day 1\na\nDay 2\nb\nDay 1\nc\n"
	blocks := Segment(text)
	require.Len(t, blocks, 3)

	days := blocks.ByKey()
	assert.Equal(t, []string{"1", "2"}, days.Keys())

	day1, ok := days.Get("1")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, Lines(day1.Text))

	_, ok = days.Get("9")
	assert.False(t, ok)
}

func TestLines(t *testing.T) {
	lines := Lines("Month 1, Day 1\n   Amazon  \n\n\tHide - Succeeded\r\n")
	assert.Equal(t, []string{"Amazon", "Hide - Succeeded"}, lines)
}
