package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mentorbot/internal/chat"
	"mentorbot/internal/gateway"
	"mentorbot/internal/session"
)

type chatState int

const (
	statePick chatState = iota
	stateChat
)

type replyMsg struct {
	res gateway.Result
	err error
}

// ChatModel is the full-screen planner: pick a learner, then talk to the
// mentor. Esc returns to the learner list without losing the conversation.
type ChatModel struct {
	ctx     context.Context
	gw      *gateway.Gateway
	session *session.Session

	state      chatState
	learners   list.Model
	input      textinput.Model
	spinner    spinner.Model
	viewport   viewport.Model
	transcript []string
	learner    string
	waiting    bool
	quitting   bool
	width      int
	height     int
}

// NewChatModel opens a session on gw and loads the learner list.
func NewChatModel(ctx context.Context, gw *gateway.Gateway) (ChatModel, error) {
	learners, err := gw.Store.Learners(ctx)
	if err != nil {
		return ChatModel{}, err
	}
	items := []list.Item{item{title: "No learner", desc: "Plan without a learner for now"}}
	for _, l := range learners {
		items = append(items, item{id: l.ID, title: l.Name, desc: l.Grade + " grade"})
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Who are we planning for?"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "Find a science lesson for Friday"
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = focusedStyle

	return ChatModel{
		ctx:      ctx,
		gw:       gw,
		session:  gw.Sessions.Create(),
		state:    statePick,
		learners: l,
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}, nil
}

func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isKey(msg, "ctrl+c") {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.learners.SetSize(msg.Width-4, msg.Height-6)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-8, 3)
		m.input.Width = msg.Width - 8
		m.refresh()
	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.add(errorStyle.Render("error: " + msg.err.Error()))
		} else {
			m.add(renderResult(msg.res))
		}
		return m, nil
	}

	switch m.state {
	case statePick:
		return m.updatePick(msg)
	default:
		return m.updateChat(msg)
	}
}

func (m ChatModel) updatePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.learners, cmd = m.learners.Update(msg)
	key, ok := msg.(tea.KeyMsg)
	if !ok || !isKey(key, "enter") {
		return m, cmd
	}
	i, ok := m.learners.SelectedItem().(item)
	if !ok {
		return m, cmd
	}
	if i.id == "" {
		m.session.SetLearner("")
		m.learner = ""
		m.add(helpStyle.Render("planning without a learner"))
	} else {
		l, err := m.gw.SelectLearner(m.ctx, m.session, i.id)
		if err != nil {
			m.add(errorStyle.Render("error: " + err.Error()))
			return m, cmd
		}
		m.learner = l.Name
		m.add(helpStyle.Render("now planning for " + l.Name))
	}
	m.state = stateChat
	return m, cmd
}

func (m ChatModel) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.state = statePick
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.SetValue("")
			m.add(focusedStyle.Render("you: ") + text)
			m.waiting = true
			return m, tea.Batch(m.spinner.Tick, m.turn(text))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) turn(text string) tea.Cmd {
	ctx, gw, s := m.ctx, m.gw, m.session
	return func() tea.Msg {
		res, err := gw.Turn(ctx, s, text)
		return replyMsg{res: res, err: err}
	}
}

func (m *ChatModel) add(line string) {
	m.transcript = append(m.transcript, line)
	m.refresh()
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func renderResult(res gateway.Result) string {
	text := mentorStyle.Render(res.Text)
	if res.Source != chat.SourceLLM {
		text += "\n" + helpStyle.Render("("+res.Source+")")
	}
	if res.Receipt != nil {
		text += "\n" + helpStyle.Render(fmt.Sprintf("saved %s for %s", res.Receipt.Type, res.Receipt.LessonKey))
	}
	return text
}

func (m ChatModel) View() string {
	if m.quitting {
		return ""
	}
	if m.state == statePick {
		return docStyle.Render(m.learners.View() + "\n\n" +
			helpStyle.Render("enter: select • ctrl+c: quit"))
	}

	title := " mentorbot "
	if m.learner != "" {
		title = fmt.Sprintf(" mentorbot · %s ", m.learner)
	}
	status := helpStyle.Render("enter: send • esc: change learner • pgup/pgdown: scroll • ctrl+c: quit")
	if m.waiting {
		status = m.spinner.View() + " thinking..."
	}
	return titleStyle.Render(title) + "\n" +
		m.viewport.View() + "\n" +
		m.input.View() + "\n" +
		status
}

// Close ends the chat session.
func (m ChatModel) Close() {
	m.gw.Sessions.Drop(m.session.ID)
}

// RunChat runs the planner chat full screen.
func RunChat(ctx context.Context, gw *gateway.Gateway) error {
	m, err := NewChatModel(ctx, gw)
	if err != nil {
		return err
	}
	defer m.Close()
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
