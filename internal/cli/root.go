// Package cli implements moviectl, a terminal client for the movie catalog.
//
// Every command shares one session manager backed by a FileStore, so a login
// survives between invocations.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/auth"
	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/config"
	"github.com/reelhouse/movie-catalog/internal/events"
	"github.com/reelhouse/movie-catalog/internal/observability"
	"github.com/reelhouse/movie-catalog/internal/service"
	"github.com/reelhouse/movie-catalog/internal/session"
	"github.com/reelhouse/movie-catalog/internal/worker"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// runtime is the per-invocation state built before any subcommand runs.
type runtime struct {
	backendURL  string
	sessionFile string
	logLevel    string

	styles     Styles
	logger     *zap.Logger
	dispatcher events.Dispatcher
	manager    *session.Manager
	client     *backend.Client
	now        func() time.Time
}

// NewRootCommand builds the moviectl command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{styles: DefaultStyles(), now: time.Now}

	root := &cobra.Command{
		Use:   "moviectl",
		Short: "Browse and manage the movie catalog",
		Long: `moviectl talks to the movie catalog backend.

Your session is kept in a local file, so you stay signed in between commands.
Adding and deleting movies requires an administrator account.

Examples:
  moviectl login --username alice
  moviectl movies search inception
  moviectl movies add --title Inception --year 2010 --genre 2
  moviectl logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&rt.backendURL, "backend", "", "catalog backend base URL (default $BACKEND_BASE_URL)")
	root.PersistentFlags().StringVar(&rt.sessionFile, "session-file", "", "session file path (default $SESSION_FILE)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newLoginCommand(rt),
		newRegisterCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newMoviesCommand(rt),
		newPersonsCommand(rt),
		newReviewsCommand(rt),
	)
	return root
}

// Execute runs moviectl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, DefaultStyles().RenderError(err))
		return 1
	}
	return 0
}

func (rt *runtime) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if rt.backendURL == "" {
		rt.backendURL = cfg.Backend.BaseURL
	}
	if rt.sessionFile == "" {
		rt.sessionFile = cfg.Session.FilePath
	}

	logCfg := cfg.Logger
	logCfg.Level = rt.logLevel
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt.logger = logger

	rt.dispatcher = events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(rt.dispatcher, logger))

	base := backend.New(backend.Options{
		BaseURL: rt.backendURL,
		Timeout: cfg.Backend.Timeout(),
		Logger:  logger,
	})
	rt.manager = session.NewManager(session.Options{
		API:        base,
		Store:      session.NewFileStore(rt.sessionFile, logger),
		Logger:     logger,
		Dispatcher: rt.dispatcher,
	})
	rt.manager.Restore(ctx)
	rt.client = base.WithCredentials(rt.manager)
	return nil
}

// guard applies the access rules of the web pages to a command.
func (rt *runtime) guard(requireAdmin bool, command string) error {
	switch auth.Decide(rt.manager.Capabilities(), requireAdmin, command).Kind {
	case auth.RedirectToLogin:
		return apperrors.NewUnauthorized("sign in first with: moviectl login")
	case auth.RedirectToHome:
		return apperrors.NewForbidden("this command requires an administrator account")
	default:
		return nil
	}
}

func (rt *runtime) catalog() *service.CatalogService {
	return service.NewCatalogService(service.CatalogDependencies{
		Movies:     rt.client,
		Viewer:     rt.manager,
		Logger:     rt.logger,
		Dispatcher: rt.dispatcher,
		Now:        rt.now,
	})
}

func (rt *runtime) persons() *service.PersonService {
	return service.NewPersonService(rt.client, rt.manager, rt.logger, rt.dispatcher)
}

func (rt *runtime) reviews() *service.ReviewService {
	return service.NewReviewService(rt.client, rt.manager, rt.logger, rt.dispatcher)
}
