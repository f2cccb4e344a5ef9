package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/rso-tracker/internal/config"
	"github.com/signalsfoundry/rso-tracker/internal/logging"
	"github.com/signalsfoundry/rso-tracker/internal/observability"
	"github.com/signalsfoundry/rso-tracker/internal/session"
	"github.com/signalsfoundry/rso-tracker/internal/users"
	"github.com/signalsfoundry/rso-tracker/kb"
	"github.com/signalsfoundry/rso-tracker/model"
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer

	ctx       context.Context
	log       logging.Logger
	closeLog  func() error
	collector *observability.PipelineCollector
	shutdown  func(context.Context) error
	sess      *session.Session
	user      model.User
}

// run executes one rsotrack invocation. Metrics, tracing and the activity
// log are flushed even when the command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	rc := newRootCommand(a)
	rc.SetArgs(args)
	err := rc.ExecuteContext(ctx)
	if terr := a.teardown(); terr != nil && err == nil {
		err = terr
	}
	return err
}

// newRootCommand builds the rsotrack command tree writing results to
// a.stdout and logs to a.stderr.
func newRootCommand(a *app) *cobra.Command {
	rc := &cobra.Command{
		Use:   "rsotrack",
		Short: "Track resident space objects and assess their risk.",
		Long: `rsotrack loads a resident space object dataset, derives risk levels and
orbit status for every object, and produces filtered listings and reports.

Settings are read from flags, RSOTRACK_* environment variables and an
optional config file, in that order of priority.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rc.CompletionOptions.DisableDefaultCmd = true
	config.Bind(rc.PersistentFlags(), &a.cfg)

	rc.AddCommand(newTrackCommand(a))
	rc.AddCommand(newLEOCommand(a))
	rc.AddCommand(newAssessCommand(a))
	rc.AddCommand(newImpactCommand(a))
	rc.AddCommand(newDensityCommand(a))
	rc.AddCommand(newSummaryCommand(a))
	rc.AddCommand(newShowCommand(a))
	rc.AddCommand(newExportSQLiteCommand(a))

	rc.SetOut(a.stdout)
	rc.SetErr(a.stderr)
	return rc
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch cmd.Name() {
	case "help", cmd.Root().Name():
		return nil
	}
	if err := config.Load(viper.New(), cmd.Flags()); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logCfg := a.cfg.Logging()
	logCfg.Output = a.stderr
	log, closeLog, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	a.closeLog = closeLog

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, log = logging.WithSessionLogger(ctx, log)
	a.ctx = ctx
	a.log = log

	tracingCfg := a.cfg.TracingConfig()
	tracingCfg.Output = a.stderr
	shutdown, err := observability.InitTracing(a.ctx, tracingCfg, log)
	if err != nil {
		return err
	}
	a.shutdown = shutdown

	collector, err := observability.NewPipelineCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	a.collector = collector

	if err := a.login(); err != nil {
		log.Warn(a.ctx, "login rejected", logging.String("user", a.cfg.User), logging.Err(err))
		return err
	}
	// Actions log as the user; catalog housekeeping logs under the session.
	a.sess = session.New(kb.NewCatalog(), a.log,
		session.WithMetricsRecorder(collector),
		session.WithStrict(a.cfg.Strict),
	)
	a.log = a.log.With(logging.String("user", model.Describe(a.user)))
	a.ctx = logging.ContextWithLogger(a.ctx, a.log)

	if _, err := a.sess.Load(a.ctx, a.cfg.Input); err != nil {
		return err
	}
	if rejected := a.sess.Rejected(); len(rejected) > 0 {
		fmt.Fprintf(a.stderr, "skipped %d malformed rows in %s:\n", len(rejected), a.sess.Source())
		for _, rej := range rejected {
			fmt.Fprintf(a.stderr, "  %v\n", rej)
		}
	}
	return nil
}

// login authenticates against the users file. Without a users file every
// invocation runs as an administrator.
func (a *app) login() error {
	if _, err := os.Stat(a.cfg.Users); errors.Is(err, os.ErrNotExist) {
		a.log.Warn(a.ctx, "users file not found; login disabled", logging.String("path", a.cfg.Users))
		a.user = model.User{Name: "local", Role: model.RoleAdministrator}
		return nil
	}
	dir, err := users.LoadFile(a.cfg.Users)
	if err != nil {
		return err
	}
	u, err := dir.Authenticate(a.cfg.User, a.cfg.Password)
	if err != nil {
		return fmt.Errorf("login as %q: %w", a.cfg.User, err)
	}
	a.user = u
	a.log.Info(a.ctx, "user logged in",
		logging.String("user", model.Describe(u)),
		logging.Int("accounts", dir.Len()),
	)
	return nil
}

// authorize fails unless the logged-in user holds one of roles.
func (a *app) authorize(action string, roles ...model.Role) error {
	if err := users.Authorize(a.user, roles...); err != nil {
		a.log.Warn(a.ctx, "action forbidden", logging.String("action", action), logging.Err(err))
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

func (a *app) teardown() error {
	var errs []error
	if a.sess != nil {
		a.sess.Close()
	}
	if a.collector != nil && a.cfg.MetricsFile != "" {
		if err := a.collector.WriteTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	if a.shutdown != nil {
		observability.ShutdownWithTimeout(a.ctx, a.shutdown, a.log)
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
