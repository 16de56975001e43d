package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mentorbot/internal/chat"
	"mentorbot/internal/planner"
	"mentorbot/internal/session"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mentorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Execute runs a single message in a fresh session and prints the reply.
func (g *Gateway) Execute(ctx context.Context, learnerID, input string, out io.Writer) error {
	s := g.Sessions.Create()
	defer g.Sessions.Drop(s.ID)
	if learnerID != "" {
		if _, err := g.SelectLearner(ctx, s, learnerID); err != nil {
			return err
		}
	}
	res, err := g.Turn(ctx, s, input)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Text)
	return nil
}

// Run is the line-oriented chat loop. It returns when in is exhausted or
// the user types /exit.
func (g *Gateway) Run(ctx context.Context, learnerID string, in io.Reader, out io.Writer) error {
	s := g.Sessions.Create()
	defer g.Sessions.Drop(s.ID)

	fmt.Fprintln(out, promptStyle.Render("mentorbot"))
	fmt.Fprintln(out, noteStyle.Render(fmt.Sprintf("model=%s, provider=%s, url=%s",
		g.Config.Model, g.Config.Provider, valueOrDefault(g.Config.BaseURL, "default"))))
	fmt.Fprintln(out, noteStyle.Render("Commands: /learners, /learner <id>, /schedule, /clear, /exit"))
	if learnerID != "" {
		g.replSelect(ctx, s, learnerID, out)
	}

	var streamed strings.Builder
	stop := g.streamTo(s.ID, func(chunk string) {
		streamed.WriteString(chunk)
		io.WriteString(out, chunk)
	})
	defer stop()

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(input, " ")
		switch cmd {
		case "/exit", "exit", "quit":
			return nil
		case "/clear":
			s.Chat.Clear()
			fmt.Fprintln(out, noteStyle.Render("context cleared"))
			continue
		case "/learners":
			g.replLearners(ctx, out)
			continue
		case "/learner":
			g.replSelect(ctx, s, strings.TrimSpace(arg), out)
			continue
		case "/schedule":
			g.replSchedule(ctx, s, out)
			continue
		}

		streamed.Reset()
		res, err := g.Turn(ctx, s, input)
		if streamed.Len() > 0 {
			fmt.Fprintln(out)
		}
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
			continue
		}
		// streamed text is already on screen unless a middleware rewrote it
		if streamed.Len() == 0 || strings.TrimSpace(streamed.String()) != res.Text {
			fmt.Fprintln(out, mentorStyle.Render(res.Text))
		}
		if notes := replyNotes(res); notes != "" {
			fmt.Fprintln(out, notes)
		}
	}
}

func replyNotes(res Result) string {
	var notes []string
	if res.Source != chat.SourceLLM {
		notes = append(notes, noteStyle.Render("("+res.Source+")"))
	}
	if res.Receipt != nil {
		notes = append(notes, noteStyle.Render(fmt.Sprintf("saved %s for %s", res.Receipt.Type, res.Receipt.LessonKey)))
	}
	return strings.Join(notes, "\n")
}

func (g *Gateway) replLearners(ctx context.Context, out io.Writer) {
	learners, err := g.Store.Learners(ctx)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
		return
	}
	for _, l := range learners {
		fmt.Fprintf(out, "  %s  %s (%s)\n", l.ID, l.Name, valueOrDefault(l.Grade, "no grade"))
	}
}

func (g *Gateway) replSelect(ctx context.Context, s *session.Session, id string, out io.Writer) {
	l, err := g.SelectLearner(ctx, s, id)
	if errors.Is(err, planner.ErrNotFound) {
		fmt.Fprintln(out, errorStyle.Render("no learner "+id+"; try /learners"))
		return
	}
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
		return
	}
	fmt.Fprintln(out, noteStyle.Render("now planning for "+l.Name))
}

func (g *Gateway) replSchedule(ctx context.Context, s *session.Session, out io.Writer) {
	if s.LearnerID() == "" {
		fmt.Fprintln(out, noteStyle.Render("select a learner first"))
		return
	}
	items, err := g.Store.Schedule(ctx, s.LearnerID())
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(out, noteStyle.Render("nothing scheduled yet"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(out, "  %s  %s\n", it.Date, it.LessonTitle)
	}
}

func valueOrDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
