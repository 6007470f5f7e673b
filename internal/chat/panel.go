package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QuickQuestions are the preset prompts bound to the number keys.
var QuickQuestions = []string{
	"How am I doing?",
	"Analyze my heart rate",
	"Any alerts I should know about?",
	"Give me some advice",
}

var (
	colorUser     = lipgloss.Color("252")
	colorBot      = lipgloss.Color("117")
	colorThinking = lipgloss.Color("220")
	colorDim      = lipgloss.Color("240")
)

// ResponseMsg carries the outcome of one Ask back into the update loop.
type ResponseMsg struct {
	Answer string
	Err    error
}

// Panel is the chat widget: transcript viewport, input line and a spinner
// placeholder while the answer is pending.
type Panel struct {
	session *Session
	timeout time.Duration

	input textinput.Model
	view  viewport.Model
	spin  spinner.Model

	width  int
	height int
}

// NewPanel creates a panel over session. Each request is bounded by timeout.
func NewPanel(session *Session, timeout time.Duration) Panel {
	in := textinput.New()
	in.Placeholder = "Ask CardioBot about your heart rate"
	in.CharLimit = 500
	in.Prompt = "› "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorThinking)

	vp := viewport.New(60, 8)

	p := Panel{
		session: session,
		timeout: timeout,
		input:   in,
		view:    vp,
		spin:    sp,
		width:   60,
		height:  8,
	}
	p.refresh()
	return p
}

// Focused reports whether the input line receives keys.
func (p Panel) Focused() bool { return p.input.Focused() }

// Focus gives the input line the keyboard.
func (p *Panel) Focus() tea.Cmd { return p.input.Focus() }

// Blur releases the keyboard.
func (p *Panel) Blur() { p.input.Blur() }

// Session returns the underlying transcript.
func (p Panel) Session() *Session { return p.session }

// SetSize sets the outer size of the panel. One line is reserved for input.
func (p *Panel) SetSize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}
	p.width = width
	p.height = height
	p.view.Width = width
	p.view.Height = height - 1
	p.input.Width = width - 4
	p.refresh()
}

// Submit starts an exchange for text. It returns nil when the session
// drops the text.
func (p *Panel) Submit(text string) tea.Cmd {
	msg, ok := p.session.Begin(text)
	if !ok {
		return nil
	}
	p.refresh()
	return tea.Batch(p.ask(msg), p.spin.Tick)
}

func (p *Panel) ask(msg string) tea.Cmd {
	asker := p.session.asker
	timeout := p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := asker.Ask(ctx, msg)
		return ResponseMsg{Answer: answer, Err: err}
	}
}

// Update handles chat messages and, while focused, key presses.
func (p Panel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case ResponseMsg:
		if msg.Err != nil {
			log.Printf("chatbot request failed: %v", msg.Err)
		}
		p.session.Finish(msg.Answer, msg.Err)
		p.refresh()
		return p, nil

	case spinner.TickMsg:
		if !p.session.Pending() {
			return p, nil
		}
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		p.refresh()
		return p, cmd

	case tea.KeyMsg:
		if !p.input.Focused() {
			var cmd tea.Cmd
			p.view, cmd = p.view.Update(msg)
			return p, cmd
		}
		switch msg.String() {
		case "enter":
			text := p.input.Value()
			if strings.TrimSpace(text) == "" {
				return p, nil
			}
			p.input.Reset()
			return p, p.Submit(text)
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *Panel) refresh() {
	p.view.SetContent(p.transcript())
	p.view.GotoBottom()
}

func (p Panel) transcript() string {
	turns := p.session.Turns()
	if len(turns) == 0 && !p.session.Pending() {
		return lipgloss.NewStyle().Foreground(colorDim).Render("Ask a question or press 1-4 for a quick one.")
	}

	wrap := lipgloss.NewStyle().Width(p.width)
	var blocks []string
	for _, t := range turns {
		blocks = append(blocks, wrap.Render(renderTurn(t)))
	}
	if p.session.Pending() {
		who := lipgloss.NewStyle().Foreground(colorThinking).Bold(true).Render(Bot.String() + ":")
		blocks = append(blocks, who+" "+p.spin.View()+" Thinking...")
	}
	return strings.Join(blocks, "\n")
}

func renderTurn(t Turn) string {
	color := colorUser
	if t.Speaker == Bot {
		color = colorBot
	}
	who := lipgloss.NewStyle().Foreground(color).Bold(true).Render(t.Speaker.String() + ":")
	body := Render(FormatMessage(t.Text), lipgloss.NewStyle().Foreground(color))
	return who + "\n" + body
}

// View draws the transcript above the input line.
func (p Panel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, p.view.View(), p.input.View())
}
