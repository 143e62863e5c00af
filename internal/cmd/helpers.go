package cmd

import (
	"os"

	"github.com/Iron-Ham/conductor/internal/config"
	"github.com/Iron-Ham/conductor/internal/coordinator"
	"github.com/Iron-Ham/conductor/internal/display"
	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/logging"
	"github.com/Iron-Ham/conductor/internal/session"
)

// env bundles everything a command needs: resolved config, the state
// store, the session machine, and the logger. Commands build one at the
// top of RunE and close it on the way out.
type env struct {
	cfg     *config.Config
	root    string
	store   *effort.Store
	machine *session.Machine
	logger  *logging.Logger
}

func newEnv() (*env, error) {
	cfg := config.Get()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve working directory")
	}
	root := cfg.ResolveRoot(cwd)

	store, err := effort.NewStore(root)
	if err != nil {
		return nil, err
	}

	logger := logging.NopLogger()
	if cfg.Log.Enabled {
		logger, err = logging.NewLoggerWithRotation(root, logging.ParseLevel(cfg.Log.Level), logging.RotationConfig{
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to open debug log")
		}
	}

	return &env{
		cfg:     cfg,
		root:    root,
		store:   store,
		machine: session.NewMachine(store, logger),
		logger:  logger,
	}, nil
}

func (e *env) close() {
	_ = e.logger.Close()
}

func (e *env) coordinator() *coordinator.Coordinator {
	return coordinator.New(e.store, e.machine, e.logger)
}

// renderer builds the terminal renderer; plain forces unstyled output
// on top of whatever the config says.
func (e *env) renderer(plain bool) *display.Renderer {
	return &display.Renderer{
		Plain:    plain || !e.cfg.Display.Color,
		MaxWidth: e.cfg.Display.MaxWidth,
	}
}

// parseSessionID validates a session ID argument before it reaches the
// machine, so typos fail with a usage-shaped message.
func parseSessionID(raw string) (effort.SessionID, error) {
	id, err := effort.ParseSessionID(raw)
	if err != nil {
		return "", err
	}
	return id, nil
}
