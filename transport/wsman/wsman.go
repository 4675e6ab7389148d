// Package wsman is the primary remote transport: a WinRM session that
// reads both pending-reboot signals from a target in a single remote
// round trip.
//
// The round trip runs one PowerShell snippet that gathers the pending
// file rename queue and the servicing marker independently, reporting
// per-signal errors inline. A failure of one half of the remote check
// therefore downgrades only that signal, matching the signal-level
// error contract; only a failure to reach or execute on the endpoint
// at all surfaces as a transport error.
package wsman

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/masterzen/winrm"

	"github.com/smnsjas/rebootcheck/failure"
	"github.com/smnsjas/rebootcheck/probe"
)

// DefaultPort is the WinRM HTTP listener port.
const DefaultPort = 5985

// DefaultTimeout bounds each remote attempt so one dead host cannot
// stall a batch.
const DefaultTimeout = 30 * time.Second

// Config holds the connection parameters for a WinRM session.
type Config struct {
	Port     int
	UseTLS   bool
	Insecure bool
	User     string
	Password string
	Timeout  time.Duration
}

// Session opens WinRM connections to targets on demand. It is safe for
// concurrent use; each call builds its own client.
type Session struct {
	cfg Config
}

// New returns a Session with defaults applied to cfg.
func New(cfg Config) *Session {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Session{cfg: cfg}
}

// signalScript gathers both signals in one remote execution. Each half
// catches its own errors so a partial failure still reports the other
// signal.
const signalScript = `
$r = [ordered]@{}
try {
  $p = Get-ItemProperty -Path 'HKLM:\SYSTEM\CurrentControlSet\Control\Session Manager' -ErrorAction Stop
  $r.pendingFileRenames = @($p.PendingFileRenameOperations | Where-Object { $_ })
} catch {
  $r.pendingError = $_.Exception.Message
}
try {
  $r.markerPresent = Test-Path -Path (Join-Path $env:SystemRoot 'WinSxS\pending.xml')
} catch {
  $r.markerError = $_.Exception.Message
}
$r | ConvertTo-Json -Compress
`

// signalReport is the wire form of the remote check's output.
type signalReport struct {
	PendingFileRenames []string `json:"pendingFileRenames"`
	PendingError       string   `json:"pendingError"`
	MarkerPresent      bool     `json:"markerPresent"`
	MarkerError        string   `json:"markerError"`
}

// Preflight tests reachability of the WinRM listener without opening a
// shell. A dial failure carries the raw network error for
// classification.
func (s *Session) Preflight(ctx context.Context, target string) error {
	d := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(target, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("wsman preflight %s: %w", target, err)
	}
	return conn.Close()
}

// ReadSignals executes the signal script on target and converts the
// report into per-signal verdicts, granting partial credit when only
// one half of the remote check failed.
func (s *Session) ReadSignals(ctx context.Context, target string) (probe.Signals, error) {
	client, err := s.client(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failure.ErrSessionOpen, err)
	}

	stdout, stderr, code, err := client.RunWithContextWithString(ctx, winrm.Powershell(signalScript), "")
	if err != nil {
		return nil, fmt.Errorf("remote signal read on %s: %w", target, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("remote signal read on %s exited %d: %s", target, code, strings.TrimSpace(stderr))
	}

	report, err := parseReport(stdout)
	if err != nil {
		return nil, fmt.Errorf("remote signal read on %s: %w", target, err)
	}
	return report.signals(), nil
}

// Restart issues a restart command against target. Invoked only after
// explicit operator confirmation.
func (s *Session) Restart(ctx context.Context, target string) error {
	client, err := s.client(target)
	if err != nil {
		return fmt.Errorf("%w: %v", failure.ErrSessionOpen, err)
	}
	_, stderr, code, err := client.RunWithContextWithString(ctx, "shutdown /r /t 5 /c \"rebootcheck requested restart\"", "")
	if err != nil {
		return fmt.Errorf("restart %s: %w", target, err)
	}
	if code != 0 {
		return fmt.Errorf("restart %s exited %d: %s", target, code, strings.TrimSpace(stderr))
	}
	return nil
}

func (s *Session) client(target string) (*winrm.Client, error) {
	endpoint := winrm.NewEndpoint(target, s.cfg.Port, s.cfg.UseTLS, s.cfg.Insecure, nil, nil, nil, s.cfg.Timeout)
	return winrm.NewClient(endpoint, s.cfg.User, s.cfg.Password)
}

func parseReport(stdout string) (*signalReport, error) {
	var report signalReport
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &report); err != nil {
		return nil, fmt.Errorf("parse signal report: %w", err)
	}
	return &report, nil
}

func (r *signalReport) signals() probe.Signals {
	s := probe.NewSignals()
	if r.PendingError == "" {
		s[probe.SignalRegistryPending] = probe.FromRenames(r.PendingFileRenames, nil)
	}
	if r.MarkerError == "" {
		s[probe.SignalServicingMarker] = probe.FromMarker(r.MarkerPresent, nil)
	}
	return s
}
