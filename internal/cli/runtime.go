package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/faizmokh/tanda/internal/config"
	"github.com/faizmokh/tanda/internal/files"
	"github.com/faizmokh/tanda/internal/stampbook"
)

// runtime carries the state shared by every command: resolved paths,
// configuration, and the logger. Persistent flags bind straight into it.
type runtime struct {
	manager *files.Manager
	store   *stampbook.Store
	logger  *slog.Logger
	config  *config.Config

	session    string
	file       string
	configPath string
	verbose    bool
}

func newRuntime(manager *files.Manager) *runtime {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &runtime{
		manager: manager,
		store:   stampbook.NewStore(logger),
		logger:  logger,
		config:  config.Default(),
	}
}

// configure loads the config file and builds the logger. It runs once per
// invocation from the root command's PersistentPreRunE.
func (rt *runtime) configure(cmd *cobra.Command) error {
	path, optional := rt.configPath, false
	if path == "" {
		path, optional = rt.manager.ConfigPath(), true
	} else {
		expanded, err := files.ExpandHome(path)
		if err != nil {
			return err
		}
		path = expanded
	}

	cfg, err := config.Load(path, optional)
	if err != nil {
		return err
	}
	rt.config = cfg

	level := cfg.LogLevel
	if rt.verbose {
		level = slog.LevelDebug
	}
	rt.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	rt.store = stampbook.NewStore(rt.logger)
	return nil
}

// sessionPath resolves --file, then --session, then the configured session.
func (rt *runtime) sessionPath() (string, error) {
	if rt.file != "" {
		return files.ExpandHome(rt.file)
	}
	name := rt.session
	if name == "" {
		name = rt.config.Session
	}
	return rt.manager.SessionPath(name)
}

// open loads the current session. Changes to the returned collection are
// logged at debug level.
func (rt *runtime) open(ctx context.Context) (*stampbook.Collection, string, error) {
	path, err := rt.sessionPath()
	if err != nil {
		return nil, "", err
	}

	c, report, err := rt.store.Open(ctx, path)
	if err != nil {
		return nil, "", err
	}
	if report.Rejected > 0 {
		rt.logger.Warn("session has unreadable lines",
			slog.String("path", path),
			slog.Int("rejected", report.Rejected))
	}

	c.Subscribe(func(ev stampbook.Event) {
		rt.logger.Debug("collection changed",
			slog.String("event", ev.Kind.String()),
			slog.Int("index", ev.Index),
			slog.String("timestamp", ev.Entry.Timestamp))
	})
	return c, path, nil
}

func (rt *runtime) save(ctx context.Context, path string, c *stampbook.Collection) error {
	if err := rt.store.Save(ctx, path, c); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
