package monitor

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit   key.Binding
	Chat   key.Binding
	Blur   key.Binding
	Reload key.Binding
	Export key.Binding
	Quick  key.Binding
	Scroll key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Chat:   key.NewBinding(key.WithKeys("tab", "/"), key.WithHelp("tab", "ask CardioBot")),
		Blur:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave chat")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Export: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Quick:  key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "quick question")),
		Scroll: key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("j/k", "scroll chat")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Chat, k.Quick, k.Reload, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Chat, k.Blur, k.Quick, k.Scroll},
		{k.Reload, k.Export, k.Quit},
	}
}
