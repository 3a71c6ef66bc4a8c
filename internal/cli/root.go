package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lu-zhengda/topsenders/internal/app"
	"github.com/lu-zhengda/topsenders/internal/browser"
	"github.com/lu-zhengda/topsenders/internal/config"
	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/logging"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/lu-zhengda/topsenders/internal/provider/gmail"
	"github.com/lu-zhengda/topsenders/internal/store"
	"github.com/lu-zhengda/topsenders/internal/store/sqlite"
	"github.com/lu-zhengda/topsenders/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for non-interactive commands.
	jsonFlag bool
	// logLevelFlag overrides [log] level when set.
	logLevelFlag string
)

func NewRootCmd() *cobra.Command {
	var (
		maxEmails int
		topN      int
		strategy  string
		noOpen    bool
	)

	root := &cobra.Command{
		Use:   "topsenders",
		Short: "Find who fills your Gmail inbox",
		Long: "Samples unread Gmail messages, ranks senders by volume, and lets you\n" +
			"mark everything from chosen senders as read (optionally opening their\n" +
			"unsubscribe links first).",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shell, _ := cmd.Flags().GetString("generate-completion"); shell != "" {
				switch shell {
				case "bash":
					return cmd.Root().GenBashCompletion(os.Stdout)
				case "zsh":
					return cmd.Root().GenZshCompletion(os.Stdout)
				case "fish":
					return cmd.Root().GenFishCompletion(os.Stdout, true)
				default:
					return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", shell)
				}
			}

			s, err := newSession(true)
			if err != nil {
				return err
			}
			defer s.Close()

			flags := cmd.Flags()
			if flags.Changed("max-emails") {
				s.cfg.Fetch.MaxEmails = maxEmails
			}
			if flags.Changed("top") {
				s.cfg.Table.TopN = topN
			}
			if flags.Changed("strategy") {
				s.cfg.Fetch.Strategy = strategy
			}
			if noOpen {
				s.cfg.Unsubscribe.OpenLinks = false
			}
			if err := s.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			fetchStrategy, err := app.NewFetchStrategy(
				s.cfg.Fetch.Strategy,
				s.cfg.Fetch.Concurrency,
				s.cfg.Fetch.BatchSize,
				pacing.NewPacer(pacing.RealClock{}, s.cfg.Fetch.BatchDelay),
			)
			if err != nil {
				return err
			}

			term := tui.NewTerminal(os.Stdin, os.Stdout)
			svc := app.NewService(s.provider, s.journal, term, browser.New(), s.logger, app.ServiceOptions{
				Query:           domain.Query{Raw: s.cfg.Fetch.Query},
				MaxEmails:       s.cfg.Fetch.MaxEmails,
				PageSize:        s.cfg.Fetch.PageSize,
				TopN:            s.cfg.Table.TopN,
				Strategy:        fetchStrategy,
				Retrier:         s.retrier,
				MutatePacer:     s.mutatePacer(),
				MutateBatchSize: s.cfg.Mutate.BatchSize,
				Loop: app.LoopOptions{
					OpenLinks: s.cfg.Unsubscribe.OpenLinks,
					LinkPacer: pacing.NewPacer(pacing.RealClock{}, s.cfg.Unsubscribe.OpenDelay),
				},
			})

			err = svc.Run(cmd.Context())
			switch {
			case errors.Is(err, domain.ErrNoMessages):
				return errors.New("no emails found")
			case errors.Is(err, domain.ErrNoSenders):
				return errors.New("no senders found")
			}
			return err
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("topsenders %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().String("generate-completion", "", "Generate shell completion (bash, zsh, fish)")
	root.Flags().MarkHidden("generate-completion")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format (non-interactive commands)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().IntVar(&maxEmails, "max-emails", 1000, "max unread emails to sample")
	root.Flags().IntVar(&topN, "top", 25, "number of senders to show")
	root.Flags().StringVar(&strategy, "strategy", "sequential", "header fetch strategy: sequential, concurrent, batched")
	root.Flags().BoolVar(&noOpen, "no-open", false, "do not open unsubscribe links when marking senders read")
	root.AddCommand(newAuthCmd())
	root.AddCommand(newUnsubscribeCmd())
	root.AddCommand(newMarkCmd())
	root.AddCommand(newHistoryCmd())
	return root
}

// Execute runs the root command and exits 1 on error.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session holds what every command that talks to Gmail needs.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider *gmail.Provider
	journal  store.Journal
	retrier  *pacing.Retrier
	db       *sqlite.DB
}

// newSession loads config, builds the logger and the Gmail provider, and
// opens the journal when withJournal is set and journaling is enabled.
func newSession(withJournal bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if err := resolveGmailCredentials(cfg); err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		provider: gmail.New(store.NewKeyringTokenStore()),
		retrier: pacing.NewRetrier(pacing.RealClock{}, pacing.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Initial:     cfg.Retry.Initial,
			Max:         cfg.Retry.Max,
		}, gmail.IsTransient),
	}

	if withJournal && cfg.Journal.Enabled {
		db, err := openDB(cfg)
		if err != nil {
			// History is best effort; the mailbox work does not depend on it.
			logger.Warn("journal unavailable", zap.Error(err))
		} else {
			s.db = db
			s.journal = db
		}
	}
	return s, nil
}

func (s *session) mutatePacer() *pacing.Pacer {
	return pacing.NewPacer(pacing.RealClock{}, s.cfg.Mutate.BatchDelay)
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
	_ = s.logger.Sync()
}

// openDB creates the journal's directory and opens the SQLite database.
func openDB(cfg *config.Config) (*sqlite.DB, error) {
	dbPath := cfg.JournalPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveGmailCredentials sets Gmail OAuth credentials using the first
// available source: config file, then environment variables.
func resolveGmailCredentials(cfg *config.Config) error {
	// 1. Config file
	if cfg.Gmail.ClientID != "" && cfg.Gmail.ClientSecret != "" {
		gmail.SetCredentials(cfg.Gmail.ClientID, cfg.Gmail.ClientSecret)
		return nil
	}

	// 2. Environment variables
	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		gmail.SetCredentials(clientID, clientSecret)
		return nil
	}

	return gmail.EnsureCredentials()
}
