package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"triage-assistant/internal/domain"
	"triage-assistant/internal/usecase"
)

const (
	cmdQuit = "/quit"
	cmdNew  = "/new"
)

func newChatCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Analyze symptoms and ask follow-up questions",
		Long: `Start an interactive session. Describe your symptoms, read the analysis,
then ask follow-up questions. Type a number to ask a suggested question,
/new to describe new symptoms and /quit to leave.`,
		Args: cobra.NoArgs,
	}
	ctxFlags := bindContextFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		clinical, err := ctxFlags.resolve(cmd)
		if err != nil {
			return err
		}
		rt, err := load(cmd.Context())
		if err != nil {
			return err
		}
		c := &chat{
			rt:       rt,
			clinical: clinical,
			in:       bufio.NewScanner(cmd.InOrStdin()),
			out:      cmd.OutOrStdout(),
			status:   cmd.ErrOrStderr(),
		}
		return c.run(cmd.Context())
	}
	return cmd
}

// chat drives one terminal session. The Session value is replaced only when
// an operation succeeds.
type chat struct {
	rt       *Runtime
	clinical domain.ClinicalContext
	in       *bufio.Scanner
	out      io.Writer
	status   io.Writer

	sess          domain.Session
	awaitSymptoms bool
}

func (c *chat) run(ctx context.Context) error {
	c.awaitSymptoms = true
	for {
		c.prompt()
		if !c.in.Scan() {
			return c.in.Err()
		}
		line := strings.TrimSpace(c.in.Text())

		switch {
		case line == cmdQuit:
			return nil
		case line == cmdNew:
			c.awaitSymptoms = true
			continue
		case c.awaitSymptoms:
			c.submit(ctx, line)
		default:
			c.ask(ctx, c.resolveQuestion(line))
		}
	}
}

func (c *chat) prompt() {
	bold := color.New(color.Bold)
	fmt.Fprintln(c.out)
	if c.awaitSymptoms {
		bold.Fprintln(c.out, "Describe your symptoms (/quit to leave):")
	} else {
		bold.Fprintln(c.out, "Ask a follow-up question (/new for new symptoms, /quit to leave):")
	}
	fmt.Fprint(c.out, "> ")
}

func (c *chat) submit(ctx context.Context, symptoms string) {
	in := usecase.SubmitInput{Symptoms: symptoms, Context: c.clinical}
	next, err := c.call(ctx, " Analyzing symptoms...", func(ctx context.Context) (domain.Session, error) {
		return c.rt.Service.Submit(ctx, c.sess, in)
	})
	if err != nil {
		c.fail(err)
		return
	}
	c.sess = next
	c.awaitSymptoms = false
	if a, ok := c.sess.Analysis(); ok {
		renderAnalysis(c.out, a)
	}
	renderSuggestions(c.out, c.sess.SuggestedQuestions())
}

func (c *chat) ask(ctx context.Context, question string) {
	next, err := c.call(ctx, " Thinking...", func(ctx context.Context) (domain.Session, error) {
		return c.rt.Service.Ask(ctx, c.sess, question)
	})
	if err != nil {
		c.fail(err)
		return
	}
	c.sess = next
	if ex := c.sess.Exchanges(); len(ex) > 0 {
		renderAnswer(c.out, ex[len(ex)-1])
	}
}

func (c *chat) call(ctx context.Context, label string, op func(context.Context) (domain.Session, error)) (domain.Session, error) {
	ctx, cancel := c.rt.withTimeout(ctx)
	defer cancel()

	var next domain.Session
	err := pending(c.status, label, func() error {
		var err error
		next, err = op(ctx)
		return err
	})
	return next, err
}

// resolveQuestion maps a suggestion number to its text while suggestions are
// on offer.
func (c *chat) resolveQuestion(line string) string {
	suggestions := c.sess.SuggestedQuestions()
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(suggestions) {
		return line
	}
	return suggestions[n-1]
}

func (c *chat) fail(err error) {
	color.New(color.FgRed).Fprintln(c.out, describeError(err))
	c.rt.logger().Debug("operation failed", "code", usecase.CodeOf(err), "err", err)
}
