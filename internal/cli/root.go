// Package cli implements the mailshot command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailshot/internal/config"
	"github.com/dmitrymomot/mailshot/pkg/logger"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFatal   = 1 // nothing or not everything was attempted
	ExitPartial = 2 // the run completed but some recipients failed
)

// Options configures the root command.
type Options struct {
	Out     io.Writer
	Err     io.Writer
	Version string
}

type state struct {
	opts Options

	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	st := &state{opts: opts}

	root := &cobra.Command{
		Use:           "mailshot",
		Short:         "Send a personalized email with an attachment to every row of a CSV file",
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "init", "help", "completion":
				return nil
			}
			return st.load(cmd)
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&st.configPath, "config", "", "Path to config file (default mailshot.yaml when present)")
	pf.StringVar(&st.envFile, "env-file", "", "Path to .env file (default .env when present)")
	pf.StringVar(&st.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&st.logFormat, "log-format", "", "Log format: text or json")
	pf.String("token-file", "", "Credential file (default token.json)")
	pf.String("client-secret", "", "OAuth client secret file (default client_secret.json)")
	pf.String("credential-store", "", "Credential store: file or keyring")
	pf.Bool("non-interactive", false, "Fail instead of starting the browser authorization")

	root.AddCommand(
		newSendCommand(st),
		newPreviewCommand(st),
		newAuthCommand(st),
		newInitCommand(st),
	)
	return root
}

func (st *state) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{Path: st.configPath, EnvFile: st.envFile})
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, persistentBindings(cmd))
	if st.logLevel != "" {
		cfg.Log.Level = st.logLevel
	}
	if st.logFormat != "" {
		cfg.Log.Format = st.logFormat
	}

	st.cfg = cfg
	st.logger = logger.New(st.opts.Err, cfg.Log)
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	logger.Flush(2 * time.Second)
	if err == nil {
		return ExitOK
	}

	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			_, _ = fmt.Fprintln(errOut, "Error:", ee.err)
		}
		return ee.code
	}
	_, _ = fmt.Fprintln(errOut, "Error:", err)
	return ExitFatal
}
