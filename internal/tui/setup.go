package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mentorbot/internal/config"
	"mentorbot/internal/middleware"
)

type setupState int

const (
	stateProvider setupState = iota
	stateAPIKey
	stateModel
	stateTelegram
	stateMiddlewares
	stateDone
)

const defaultOllamaURL = "http://localhost:11434"

type savedMsg struct{ err error }

// SetupModel is the first-run wizard. It writes a config file with the
// provider, model, optional Telegram token and middleware switches.
type SetupModel struct {
	state setupState
	cfg   config.Config
	path  string

	list        list.Model
	input       textinput.Model
	middlewares []config.MiddlewareSetting
	cursor      int

	fetchModels func(baseURL string) []list.Item

	err      error
	quitting bool
	width    int
	height   int
}

// NewSetupModel starts the wizard from base and saves to path.
func NewSetupModel(base config.Config, path string) SetupModel {
	providers := []list.Item{
		item{id: "ollama", title: "ollama", desc: "Local execution via Ollama"},
		item{id: "openai", title: "openai", desc: "OpenAI GPT models (requires API Key)"},
		item{id: "anthropic", title: "anthropic", desc: "Claude models (requires API Key)"},
		item{id: "gemini", title: "gemini", desc: "Google Gemini models (requires API Key)"},
	}

	l := list.New(providers, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select AI Provider"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Focus()

	enabled := make(map[string]bool)
	for _, s := range base.Middlewares {
		enabled[s.ID] = s.Enabled
	}
	ids := middleware.Registered()
	settings := make([]config.MiddlewareSetting, len(ids))
	for i, id := range ids {
		on, ok := enabled[id]
		settings[i] = config.MiddlewareSetting{ID: id, Enabled: on || !ok}
	}

	return SetupModel{
		state:       stateProvider,
		cfg:         base,
		path:        path,
		list:        l,
		input:       ti,
		middlewares: settings,
		fetchModels: fetchOllamaModels,
	}
}

type ollamaResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func fetchOllamaModels(baseURL string) []list.Item {
	fallback := []list.Item{item{id: "llama3.2", title: "llama3.2", desc: "Default (Ollama not responding)"}}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimRight(baseURL, "/") + "/api/tags")
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()

	var data ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || len(data.Models) == 0 {
		return fallback
	}
	items := make([]list.Item, len(data.Models))
	for i, m := range data.Models {
		items[i] = item{id: m.Name, title: m.Name, desc: "Local Ollama model"}
	}
	return items
}

func cloudModels(provider string) []list.Item {
	switch provider {
	case "openai":
		return []list.Item{
			item{id: "gpt-4o", title: "gpt-4o", desc: "Best OpenAI model"},
			item{id: "gpt-4o-mini", title: "gpt-4o-mini", desc: "Fast OpenAI model"},
		}
	case "anthropic":
		return []list.Item{item{id: "claude-3-5-sonnet-latest", title: "claude-3-5-sonnet-latest", desc: "Best Anthropic model"}}
	default:
		return []list.Item{
			item{id: "gemini-2.5-flash", title: "gemini-2.5-flash", desc: "Fast Google model"},
			item{id: "gemini-2.5-pro", title: "gemini-2.5-pro", desc: "Powerful Google model"},
		}
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Err is the save error, if any, once the wizard has quit.
func (m SetupModel) Err() error { return m.err }

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		typing := m.state == stateAPIKey || m.state == stateTelegram
		if isKey(msg, "ctrl+c") || (!typing && isKey(msg, "q")) {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-10, msg.Height-15)
	case savedMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	key, isKeyMsg := msg.(tea.KeyMsg)
	enter := isKeyMsg && isKey(key, "enter")

	switch m.state {
	case stateProvider:
		m.list, cmd = m.list.Update(msg)
		if i, ok := m.list.SelectedItem().(item); ok && enter {
			m.cfg.Provider = i.id
			if i.id == "ollama" {
				if m.cfg.BaseURL == "" {
					m.cfg.BaseURL = defaultOllamaURL
				}
				m.cfg.APIKey = ""
				m.showModels(m.fetchModels(m.cfg.BaseURL), "Select Local Model")
			} else {
				m.cfg.BaseURL = ""
				m.state = stateAPIKey
				m.input.Prompt = fmt.Sprintf("%s API Key: ", i.id)
				m.input.EchoMode = textinput.EchoPassword
				m.input.SetValue("")
			}
		}

	case stateAPIKey:
		m.input, cmd = m.input.Update(msg)
		if enter {
			m.cfg.APIKey = strings.TrimSpace(m.input.Value())
			m.showModels(cloudModels(m.cfg.Provider), "Select Cloud Model")
		}

	case stateModel:
		m.list, cmd = m.list.Update(msg)
		if i, ok := m.list.SelectedItem().(item); ok && enter {
			m.cfg.Model = i.id
			m.state = stateTelegram
			m.input.Prompt = "Telegram Bot Token (optional): "
			m.input.EchoMode = textinput.EchoNormal
			m.input.SetValue(m.cfg.TelegramToken)
		}

	case stateTelegram:
		m.input, cmd = m.input.Update(msg)
		if enter {
			m.cfg.TelegramToken = strings.TrimSpace(m.input.Value())
			m.state = stateMiddlewares
		}

	case stateMiddlewares:
		if !isKeyMsg {
			break
		}
		switch key.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.middlewares)-1 {
				m.cursor++
			}
		case " ":
			if len(m.middlewares) > 0 {
				m.middlewares[m.cursor].Enabled = !m.middlewares[m.cursor].Enabled
			}
		case "enter":
			m.cfg.Middlewares = m.middlewares
			m.state = stateDone
			return m, m.saveConfig()
		}

	case stateDone:
		if isKeyMsg {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, cmd
}

func (m *SetupModel) showModels(items []list.Item, title string) {
	m.state = stateModel
	m.list.SetItems(items)
	m.list.Select(0)
	m.list.Title = title
}

func (m SetupModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(" mentorbot setup "))
	s.WriteString("\n\n")

	tabs := []string{"Provider", "Model", "Telegram", "Middlewares", "Finish"}
	current := int(m.state)
	if m.state >= stateAPIKey {
		// the API key is part of the provider tab
		current--
	}
	if m.state == stateAPIKey {
		current = 0
	}
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if i == current {
			rendered[i] = activeTabStyle.Render(t)
		} else {
			rendered[i] = inactiveTabStyle.Render(t)
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	s.WriteString("\n\n")

	var content string
	switch m.state {
	case stateProvider, stateModel:
		content = m.list.View()
	case stateAPIKey, stateTelegram:
		content = "\n" + m.input.View() + "\n\n" + helpStyle.Render("Press enter to continue")
	case stateMiddlewares:
		var b strings.Builder
		b.WriteString("Toggle middlewares with [SPACE], press [ENTER] to finish.\n\n")
		for i, mw := range m.middlewares {
			cursor, checked := " ", " "
			if m.cursor == i {
				cursor = ">"
			}
			if mw.Enabled {
				checked = "x"
			}
			line := fmt.Sprintf("%s [%s] %s", cursor, checked, mw.ID)
			if m.cursor == i {
				line = focusedStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		content = b.String()
	case stateDone:
		if m.err != nil {
			content = errorStyle.Render("Could not save configuration: " + m.err.Error())
		} else {
			content = fmt.Sprintf("\nConfiguration saved to %s.\nPress any key to exit.", m.path)
		}
	}

	s.WriteString(windowStyle.Width(max(m.width-10, 20)).Render(content))
	if m.state != stateDone {
		s.WriteString("\n\n" + helpStyle.Render("ctrl+c: quit • ↑/↓: navigate • enter: select"))
	}
	return docStyle.Render(s.String())
}

func (m SetupModel) saveConfig() tea.Cmd {
	cfg, path := m.cfg, m.path
	return func() tea.Msg {
		return savedMsg{err: cfg.SaveToFile(path)}
	}
}

// RunSetup runs the wizard full screen.
func RunSetup(base config.Config, path string) error {
	final, err := tea.NewProgram(NewSetupModel(base, path), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	return final.(SetupModel).Err()
}
