package chat

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
)

// Span is a run of text with uniform emphasis.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
}

// Emphasis markers substituted for the markup before spans are cut.
const (
	boldOn    = "\x00"
	boldOff   = "\x01"
	italicOn  = "\x02"
	italicOff = "\x03"
)

var controlStrip = strings.NewReplacer(boldOn, "", boldOff, "", italicOn, "", italicOff, "")

// FormatMessage splits text into lines of spans. Only two rules exist:
// **x** is bold and *x* is italic. Bold is applied first over the whole
// line, so italic may enclose bold text.
func FormatMessage(text string) [][]Span {
	raw := strings.Split(controlStrip.Replace(text), "\n")
	lines := make([][]Span, len(raw))
	for i, line := range raw {
		line = boldRe.ReplaceAllString(line, boldOn+"$1"+boldOff)
		line = italicRe.ReplaceAllString(line, italicOn+"$1"+italicOff)
		lines[i] = spans(line)
	}
	return lines
}

func spans(marked string) []Span {
	var (
		out          []Span
		sb           strings.Builder
		bold, italic bool
	)
	flush := func() {
		if sb.Len() > 0 {
			out = append(out, Span{Text: sb.String(), Bold: bold, Italic: italic})
			sb.Reset()
		}
	}
	for _, r := range marked {
		switch string(r) {
		case boldOn, boldOff:
			flush()
			bold = string(r) == boldOn
		case italicOn, italicOff:
			flush()
			italic = string(r) == italicOn
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	return out
}

// Render draws formatted lines with terminal emphasis.
func Render(lines [][]Span, base lipgloss.Style) string {
	out := make([]string, len(lines))
	for i, spans := range lines {
		var sb strings.Builder
		for _, sp := range spans {
			sb.WriteString(base.Bold(sp.Bold).Italic(sp.Italic).Render(sp.Text))
		}
		out[i] = sb.String()
	}
	return strings.Join(out, "\n")
}
