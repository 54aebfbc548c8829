// Package compose builds the text of an outbound status message.
package compose

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
	"text/template"
	"time"
)

// TimeLayout renders as YYYY/MM/DD hh:mm:ss.
const TimeLayout = "2006/01/02 15:04:05"

type codeRange struct{ lo, hi rune } // inclusive

// emojiRanges are the pictograph blocks messages draw from.
var emojiRanges = []codeRange{
	{0x1F32D, 0x1F3F9},
	{0x1F400, 0x1F43F},
	{0x1F451, 0x1F488},
	{0x1F4A0, 0x1F4FE},
	{0x1F5FB, 0x1F5FF},
}

// EmojiCount is the number of distinct runes Emoji can return.
var EmojiCount = func() int {
	n := 0
	for _, r := range emojiRanges {
		n += int(r.hi-r.lo) + 1
	}
	return n
}()

// Emoji picks one rune uniformly over all code points of emojiRanges. A nil
// rng uses the package-level source.
func Emoji(rng *rand.Rand) string {
	var i int
	if rng == nil {
		i = rand.IntN(EmojiCount)
	} else {
		i = rng.IntN(EmojiCount)
	}
	return string(emojiAt(i))
}

// emojiAt maps an index in [0, EmojiCount) onto the ranges in order.
func emojiAt(i int) rune {
	for _, r := range emojiRanges {
		size := int(r.hi-r.lo) + 1
		if i < size {
			return r.lo + rune(i)
		}
		i -= size
	}
	panic(fmt.Sprintf("compose: emoji index out of range: %d", i))
}

// Timestamp formats now shifted to a fixed UTC offset in whole hours.
func Timestamp(now time.Time, offsetHours int) string {
	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
	return now.In(zone).Format(TimeLayout)
}

// Fields are the values available to a message template.
type Fields struct {
	Emoji    string
	Caller   string
	Hostname string
	Time     string
	Text     string
}

// Parse checks that tmpl is a valid message template.
func Parse(tmpl string) (*template.Template, error) {
	t, err := template.New("message").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parsing message template: %w", err)
	}
	return t, nil
}

// Render executes tmpl against f. Surrounding whitespace is trimmed.
func Render(tmpl string, f Fields) (string, error) {
	t, err := Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, f); err != nil {
		return "", fmt.Errorf("rendering message template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Composer fills Fields from device identity, a clock and a random source.
type Composer struct {
	Template    string
	Caller      string
	Hostname    string
	OffsetHours int

	Now  func() time.Time
	Rand *rand.Rand
}

// Compose renders one message. text is the optional free-form part.
func (c *Composer) Compose(text string) (string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return Render(c.Template, Fields{
		Emoji:    Emoji(c.Rand),
		Caller:   c.Caller,
		Hostname: c.Hostname,
		Time:     Timestamp(now(), c.OffsetHours),
		Text:     text,
	})
}
