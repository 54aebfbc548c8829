package compose

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmojiCount(t *testing.T) {
	assert.Equal(t, 205+64+56+95+5, EmojiCount)
}

func TestEmojiAtBoundaries(t *testing.T) {
	tests := []struct {
		index int
		want  rune
	}{
		{0, 0x1F32D},
		{204, 0x1F3F9},
		{205, 0x1F400},
		{268, 0x1F43F},
		{269, 0x1F451},
		{325, 0x1F4A0},
		{419, 0x1F4FE},
		{420, 0x1F5FB},
		{424, 0x1F5FF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, emojiAt(tt.index), "index %d", tt.index)
	}
}

func TestEmojiAtOutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() { emojiAt(EmojiCount) })
}

func TestEmojiAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 2000; i++ {
		e := Emoji(rng)
		require.True(t, isEmoji(e), "got %U", []rune(e)[0])
	}
	assert.True(t, isEmoji(Emoji(nil)))
}

func TestEmojiDeterministicWithSeed(t *testing.T) {
	a := Emoji(rand.New(rand.NewPCG(7, 7)))
	b := Emoji(rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
}

func TestIsEmoji(t *testing.T) {
	assert.True(t, isEmoji("\U0001F40D"))
	assert.False(t, isEmoji("\U0001F32C"))
	assert.False(t, isEmoji("\U0001F440"))
	assert.False(t, isEmoji(""))
	assert.False(t, isEmoji("\U0001F40D\U0001F40D"))
}

func TestTimestamp(t *testing.T) {
	now := time.Date(2024, 7, 18, 23, 4, 5, 0, time.UTC)

	assert.Equal(t, "2024/07/18 23:04:05", Timestamp(now, 0))
	assert.Equal(t, "2024/07/19 08:04:05", Timestamp(now, 9))
	assert.Equal(t, "2024/07/18 18:04:05", Timestamp(now, -5))
}

func TestRender(t *testing.T) {
	out, err := Render("{{.Emoji}} from {{.Caller}} {{.Hostname}} at {{.Time}}{{if .Text}}: {{.Text}}{{end}}", Fields{
		Emoji:    "🐍",
		Caller:   "hal",
		Hostname: "esp-kitchen",
		Time:     "2024/07/18 23:04:05",
	})
	require.NoError(t, err)
	assert.Equal(t, "🐍 from hal esp-kitchen at 2024/07/18 23:04:05", out)

	out, err = Render("{{.Caller}}{{if .Text}}: {{.Text}}{{end}}\n", Fields{Caller: "hal", Text: "てすと"})
	require.NoError(t, err)
	assert.Equal(t, "hal: てすと", out)
}

func TestRenderErrors(t *testing.T) {
	_, err := Render("{{.Emoji", Fields{})
	assert.ErrorContains(t, err, "parsing message template")

	_, err = Render("{{.Missing}}", Fields{})
	assert.ErrorContains(t, err, "rendering message template")
}

func TestComposer(t *testing.T) {
	c := &Composer{
		Template:    "{{.Emoji}}|{{.Caller}}|{{.Hostname}}|{{.Time}}|{{.Text}}",
		Caller:      "hal",
		Hostname:    "esp-kitchen",
		OffsetHours: 9,
		Now:         func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		Rand:        rand.New(rand.NewPCG(3, 4)),
	}
	out, err := c.Compose("hi")
	require.NoError(t, err)

	parts := strings.Split(out, "|")
	require.Len(t, parts, 5)
	assert.True(t, isEmoji(parts[0]))
	assert.Equal(t, []string{"hal", "esp-kitchen", "2024/01/01 09:00:00", "hi"}, parts[1:])
}

// isEmoji reports whether s is a single rune from emojiRanges.
func isEmoji(s string) bool {
	runes := []rune(s)
	if len(runes) != 1 {
		return false
	}
	for _, r := range emojiRanges {
		if runes[0] >= r.lo && runes[0] <= r.hi {
			return true
		}
	}
	return false
}
