package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	next     key.Binding
	prev     key.Binding
	festival key.Binding
	toggle   key.Binding
	sync     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "next page")),
		prev:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "prev page")),
		festival: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "festivals/concerts/all")),
		toggle:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "interested")),
		sync:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync cache")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.next, k.prev, k.festival},
		{k.toggle, k.sync, k.back, k.quit},
	}
}
