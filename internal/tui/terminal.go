package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lu-zhengda/topsenders/internal/app"
	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/mattn/go-isatty"
)

// Terminal renders the sender table and reads commands. On a TTY it uses a
// Bubble Tea prompt; otherwise it reads plain lines so input can be piped.
type Terminal struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	lines       *bufio.Reader
}

var _ app.Terminal = (*Terminal)(nil)

// NewTerminal returns a Terminal over in and out. The Bubble Tea prompt is
// used only when both are terminals.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:          in,
		out:         out,
		interactive: isTerminal(in) && isTerminal(out),
		lines:       bufio.NewReader(in),
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (t *Terminal) Render(entries []app.Entry) {
	fmt.Fprintln(t.out, RenderSenders(entries))
}

func (t *Terminal) Prompt(ctx context.Context, text string) (string, error) {
	if t.interactive {
		return runPrompt(ctx, t.in, t.out, text)
	}

	fmt.Fprint(t.out, "\n"+text)
	line, err := t.lines.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) ShowReport(r *domain.MutationReport) {
	fmt.Fprint(t.out, RenderReport(r))
}
