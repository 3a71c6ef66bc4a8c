package app

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"go.uber.org/zap"
)

// PromptText lists the commands accepted at the prompt.
const PromptText = "[r]efresh table, [u] mark ALL as unread, [e] exit, or comma-separated numbers to mark as read, Enter to quit: "

// Terminal is the interactive surface the loop drives.
type Terminal interface {
	Render(entries []Entry)
	// Prompt reads one command line. io.EOF ends the session.
	Prompt(ctx context.Context, text string) (string, error)
	Printf(format string, args ...any)
	ShowReport(report *domain.MutationReport)
}

// Browser opens a link outside the process.
type Browser interface {
	OpenURL(url string) error
}

// State is a position in the interaction loop.
type State int

const (
	StateDisplay State = iota
	StateAwaitCommand
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateDisplay:
		return "display"
	case StateAwaitCommand:
		return "await_command"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// CommandKind is what a prompt line asks for.
type CommandKind int

const (
	CmdQuit CommandKind = iota
	CmdRefresh
	CmdBulkUnreadAll
	CmdExit
	CmdApplySelection
)

// Command is a parsed prompt line.
type Command struct {
	Kind CommandKind
	// Selection holds the raw index list for CmdApplySelection.
	Selection string
}

// ParseCommand interprets one prompt line. Letters are case-insensitive;
// anything that is not a known letter or empty is treated as a selection.
func ParseCommand(line string) Command {
	s := strings.ToLower(strings.TrimSpace(line))
	switch s {
	case "":
		return Command{Kind: CmdQuit}
	case "r":
		return Command{Kind: CmdRefresh}
	case "u":
		return Command{Kind: CmdBulkUnreadAll}
	case "e":
		return Command{Kind: CmdExit}
	}
	return Command{Kind: CmdApplySelection, Selection: s}
}

// LoopOptions configures the interaction loop.
type LoopOptions struct {
	// OpenLinks opens a selected sender's unsubscribe link before marking it read.
	OpenLinks bool
	// LinkPacer spaces consecutive link openings.
	LinkPacer *pacing.Pacer
}

// Loop is the single-threaded render, read, dispatch cycle over a ranked table.
type Loop struct {
	table   *RankedTable
	mutator *BulkMutator
	term    Terminal
	browser Browser
	logger  *zap.Logger
	opts    LoopOptions
	state   State
}

// NewLoop returns a Loop in the Display state.
func NewLoop(table *RankedTable, mutator *BulkMutator, term Terminal, browser Browser, logger *zap.Logger, opts LoopOptions) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		table:   table,
		mutator: mutator,
		term:    term,
		browser: browser,
		logger:  logger.Named("loop"),
		opts:    opts,
		state:   StateDisplay,
	}
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Run drives the loop until it terminates. Mutations block the loop, so no
// command is read while a batch is in flight.
func (l *Loop) Run(ctx context.Context) error {
	for l.state != StateTerminated {
		if l.table.Len() == 0 {
			l.state = StateTerminated
			break
		}

		l.term.Render(l.table.Entries())
		l.state = StateAwaitCommand

		line, err := l.term.Prompt(ctx, PromptText)
		if errors.Is(err, io.EOF) {
			l.state = StateTerminated
			break
		}
		if err != nil {
			l.state = StateTerminated
			return err
		}

		if err := l.dispatch(ctx, ParseCommand(line)); err != nil {
			l.state = StateTerminated
			return err
		}
	}
	return nil
}

func (l *Loop) dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CmdRefresh:
		l.state = StateDisplay
		return nil

	case CmdQuit:
		l.state = StateTerminated
		return nil

	case CmdExit:
		l.term.Printf("Exiting...\n")
		l.state = StateTerminated
		return nil

	case CmdBulkUnreadAll:
		keys := l.table.Keys()
		l.term.Printf("Marking all emails from %d senders as unread...\n", len(keys))
		report, err := l.mutator.Mutate(ctx, keys, domain.Unread)
		if report != nil {
			l.term.ShowReport(report)
		}
		l.state = StateTerminated
		return err
	}

	return l.applySelection(ctx, cmd.Selection)
}

func (l *Loop) applySelection(ctx context.Context, input string) error {
	keys, verrs := l.table.SelectByIndices(input)
	for _, ve := range verrs {
		l.term.Printf("%v\n", ve)
	}
	if len(keys) == 0 {
		l.term.Printf("No valid senders selected.\n")
		l.state = StateDisplay
		return nil
	}

	if l.opts.OpenLinks && l.browser != nil {
		l.openLinks(ctx, keys)
	}

	l.term.Printf("Marking all emails from %d senders as read...\n", len(keys))
	report, err := l.mutator.Mutate(ctx, keys, domain.Read)
	if report != nil {
		l.term.ShowReport(report)
		l.table.RemoveSenders(report.Succeeded())
	}
	if err != nil {
		return err
	}

	if l.table.Len() == 0 {
		l.term.Printf("No more senders to display.\n")
		l.state = StateTerminated
		return nil
	}
	l.state = StateDisplay
	return nil
}

// openLinks opens each selected sender's unsubscribe link. Failures are
// logged and never stop the mutation that follows.
func (l *Loop) openLinks(ctx context.Context, keys []domain.SenderKey) {
	for _, k := range keys {
		e, ok := l.table.Lookup(k)
		if !ok || !e.HasUnsubscribeLink() {
			continue
		}
		if l.opts.LinkPacer != nil {
			if err := l.opts.LinkPacer.Wait(ctx); err != nil {
				return
			}
		}
		l.term.Printf("Opening unsubscribe link for %s: %s\n", k, e.UnsubscribeLink)
		if err := l.browser.OpenURL(e.UnsubscribeLink); err != nil {
			l.logger.Warn("failed to open unsubscribe link",
				zap.String("sender", string(k)),
				zap.String("url", e.UnsubscribeLink),
				zap.Error(err),
			)
			l.term.Printf("Failed to open unsubscribe link for %s: %v\n", k, err)
		}
	}
}
