// Package tui implements the interactive chat screen.
//
// One question is in flight at a time from the UI's point of view, but the
// pipeline itself does not serialize calls; whichever response arrives last
// is the one shown. Slash commands cover the non-chat surfaces: /docs lists
// uploaded documents, /upload pushes a new one, /quit exits.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docsage/docsage/internal/chat"
	"github.com/docsage/docsage/internal/docs"
)

// askDoneMsg carries the outcome of an asynchronous Ask.
type askDoneMsg struct {
	result chat.Result
}

// uploadDoneMsg carries the outcome of an asynchronous upload.
type uploadDoneMsg struct {
	status  docs.Status
	message string
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	service  *chat.Service
	registry *docs.Registry
	uploader *docs.Uploader

	input    textinput.Model
	spinner  spinner.Model
	styles   Styles
	markdown *markdownRenderer

	transcript []string
	status     string
	waiting    bool
	width      int
}

// New creates the chat screen model.
func New(ctx context.Context, service *chat.Service, registry *docs.Registry, uploader *docs.Uploader) Model {
	input := textinput.New()
	input.Placeholder = "Ask anything about your documents"
	input.Focus()
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		service:  service,
		registry: registry,
		uploader: uploader,
		input:    input,
		spinner:  sp,
		styles:   DefaultStyles(),
		markdown: newMarkdownRenderer(80),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.markdown.UpdateWidth(msg.Width - 2)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case askDoneMsg:
		m.waiting = false
		m.status = ""
		m.appendResult(msg.result)
		return m, nil

	case uploadDoneMsg:
		m.waiting = false
		switch msg.status {
		case docs.StatusSuccess:
			m.status = msg.message
		default:
			m.status = m.styles.Error.Render(msg.message)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles Enter: slash commands run inline, questions dispatch async.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(line, "/") {
		return m.runCommand(line)
	}

	m.transcript = append(m.transcript, m.styles.User.Render("You: ")+line)
	m.waiting = true
	m.status = ""

	service := m.service
	ctx := m.ctx
	ask := func() tea.Msg {
		return askDoneMsg{result: service.Ask(ctx, line)}
	}
	return m, tea.Batch(m.spinner.Tick, ask)
}

// runCommand executes a slash command.
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(line)

	switch parts[0] {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/docs":
		list := m.registry.List()
		if len(list) == 0 {
			m.transcript = append(m.transcript, m.styles.Warning.Render("No documents uploaded yet."))
			return m, nil
		}
		var sb strings.Builder
		sb.WriteString(m.styles.Header.Render("Your documents:"))
		for _, doc := range list {
			sb.WriteString("\n  - " + doc.Name)
		}
		m.transcript = append(m.transcript, sb.String())
		return m, nil

	case "/upload":
		if len(parts) < 2 {
			m.status = m.styles.Error.Render("Usage: /upload <path>")
			return m, nil
		}
		m.uploader.Select(strings.Join(parts[1:], " "))
		m.waiting = true
		m.status = "Uploading..."

		uploader := m.uploader
		ctx := m.ctx
		upload := func() tea.Msg {
			_ = uploader.Submit(ctx)
			status, message := uploader.State()
			return uploadDoneMsg{status: status, message: message}
		}
		return m, tea.Batch(m.spinner.Tick, upload)

	case "/help":
		m.transcript = append(m.transcript, m.styles.Help.Render(
			"Commands: /docs list documents, /upload <path> upload a file, /quit exit"))
		return m, nil

	default:
		m.status = m.styles.Error.Render(fmt.Sprintf("Unknown command: %s", parts[0]))
		return m, nil
	}
}

// appendResult renders an Ask outcome into the transcript.
func (m *Model) appendResult(result chat.Result) {
	switch result.Kind {
	case chat.KindAnswered:
		answer := m.markdown.Render(result.Answer)
		entry := m.styles.Assistant.Render("Answer:") + "\n" + answer
		if len(result.Sources) > 0 {
			entry += "\n" + m.styles.Sources.Render("Sources: "+strings.Join(result.Sources, ", "))
		}
		m.transcript = append(m.transcript, entry)

	case chat.KindNoDocuments:
		m.transcript = append(m.transcript, m.styles.Warning.Render(result.Answer))

	default:
		m.transcript = append(m.transcript, m.styles.Error.Render(result.Answer))
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render("docsage: ask your documents"))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Help.Render("/help for commands"))
	sb.WriteString("\n\n")

	for _, entry := range m.transcript {
		sb.WriteString(entry)
		sb.WriteString("\n\n")
	}

	if m.waiting {
		sb.WriteString(m.spinner.View())
		sb.WriteString(m.styles.Status.Render(" thinking..."))
		sb.WriteString("\n")
	} else if m.status != "" {
		sb.WriteString(m.styles.Status.Render(m.status))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	return sb.String()
}
