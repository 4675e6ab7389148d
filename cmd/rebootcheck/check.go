package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smnsjas/rebootcheck/config"
	"github.com/smnsjas/rebootcheck/engine"
	"github.com/smnsjas/rebootcheck/history"
	"github.com/smnsjas/rebootcheck/resolver"
	"github.com/smnsjas/rebootcheck/transport/local"
	"github.com/smnsjas/rebootcheck/transport/remreg"
	"github.com/smnsjas/rebootcheck/transport/share"
	"github.com/smnsjas/rebootcheck/transport/wsman"
)

func newCheckCmd() *cobra.Command {
	var (
		prompt     bool
		showStatus bool
		fallback   bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "check [targets...]",
		Short: "Check hosts for a pending reboot",
		Long: `Check hosts for a pending reboot.
Targets are hostnames; "." or "localhost" means this machine. With no
arguments, or with "-", targets are read line by line from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := gatherTargets(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			session := wsman.New(wsman.Config{
				Port:     cfg.WinRMPort,
				UseTLS:   cfg.WinRMUseTLS,
				Insecure: cfg.WinRMInsecure,
				User:     qualifiedUser(cfg),
				Password: cfg.Password,
				Timeout:  cfg.AttemptTimeout(),
			})
			shareAcc := share.New(cfg.Username, cfg.Password, cfg.Domain)
			shareAcc.Timeout = cfg.AttemptTimeout()

			rsv := resolver.New(local.New(), session, remreg.New(), shareAcc)
			rsv.AttemptTimeout = cfg.AttemptTimeout()

			e := engine.New(rsv)
			if opts.Verbose {
				logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
				e.SetSlogLogger(logger)
				rsv.Logger = slogPrintf{logger}
			}
			if prompt {
				e.SetConfirmer(&stdinConfirmer{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()})
				e.SetRestarter(&restarter{session: session, isLocal: rsv.IsLocal})
			}
			if cfg.HistoryPath != "" {
				store, err := history.Open(ctx, cfg.HistoryPath)
				if err != nil {
					return err
				}
				defer store.Close()
				e.SetRecorder(store)
			}

			stdout := cmd.OutOrStdout()
			sum, err := e.Run(ctx, targets, engine.Options{
				Prompt:         prompt,
				ShowStatus:     showStatus,
				EnableFallback: fallback,
				Concurrency:    cfg.Concurrency,
				Status:         cmd.ErrOrStderr(),
			}, func(res engine.CheckResult) {
				printResult(stdout, res, asJSON)
			})
			if err != nil {
				return err
			}

			if !asJSON {
				fmt.Fprintf(stdout, "AnyRebootRequired=%v AnyConnectionDenied=%v\n",
					sum.AnyRebootRequired, sum.AnyConnectionDenied)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "ask for confirmation before restarting hosts that need it")
	cmd.Flags().BoolVar(&showStatus, "status", false, "print a human-readable status line (single target only)")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "try direct registry and admin-share access when WinRM fails")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit one JSON record per target")

	return cmd
}

// gatherTargets takes targets from args, or line-delimited from stdin
// when no args are given or "-" is passed.
func gatherTargets(args []string, stdin io.Reader) ([]string, error) {
	fromStdin := len(args) == 0
	targets := make([]string, 0, len(args))
	for _, a := range args {
		if a == "-" {
			fromStdin = true
			continue
		}
		targets = append(targets, a)
	}
	if !fromStdin {
		return targets, nil
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		targets = append(targets, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return targets, nil
}

func printResult(w io.Writer, res engine.CheckResult, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(w)
		_ = enc.Encode(res)
		return
	}
	fmt.Fprintf(w, "Target=%s RebootRequired=%s RegistryPending=%s ServicingMarkerPresent=%s RemoteConnectionDenied=%v",
		res.Target, res.RebootRequired, res.RegistryPending(), res.ServicingMarkerPresent(), res.RemoteConnectionDenied)
	if res.RemoteConnectionDenied {
		fmt.Fprintf(w, " DeniedClass=%s DeniedReason=%q", res.DeniedClass, res.DeniedReason)
	}
	fmt.Fprintln(w)
}

func qualifiedUser(cfg config.Config) string {
	if cfg.Domain != "" && cfg.Username != "" && !strings.Contains(cfg.Username, `\`) {
		return cfg.Domain + `\` + cfg.Username
	}
	return cfg.Username
}

// stdinConfirmer asks on stderr and reads a y/N answer from stdin.
type stdinConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c *stdinConfirmer) Confirm(target string) bool {
	fmt.Fprintf(c.out, "Restart %s now? [y/N] ", target)
	scanner := bufio.NewScanner(c.in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// restarter triggers a confirmed restart: remotely over the WinRM
// session, locally via the shutdown command.
type restarter struct {
	session *wsman.Session
	isLocal func(string) bool
}

func (r *restarter) Restart(ctx context.Context, target string) error {
	if r.isLocal(target) {
		if runtime.GOOS != "windows" {
			return fmt.Errorf("local restart requires windows")
		}
		return exec.CommandContext(ctx, "shutdown", "/r", "/t", "5").Run()
	}
	return r.session.Restart(ctx, target)
}

// slogPrintf adapts a slog.Logger to the resolver's Printf interface.
type slogPrintf struct {
	logger *slog.Logger
}

func (s slogPrintf) Printf(format string, v ...interface{}) {
	s.logger.Debug(fmt.Sprintf(format, v...))
}
