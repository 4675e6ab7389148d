package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/smnsjas/rebootcheck/config"
	"github.com/smnsjas/rebootcheck/engine"
	"github.com/smnsjas/rebootcheck/probe"
	"github.com/smnsjas/rebootcheck/tristate"
)

func TestGatherTargetsFromArgs(t *testing.T) {
	targets, err := gatherTargets([]string{"server01", "server02"}, strings.NewReader("ignored\n"))
	if err != nil {
		t.Fatalf("gatherTargets failed: %v", err)
	}
	if len(targets) != 2 || targets[0] != "server01" {
		t.Errorf("targets = %v", targets)
	}
}

func TestGatherTargetsFromStdin(t *testing.T) {
	targets, err := gatherTargets(nil, strings.NewReader("server01\nserver02\n"))
	if err != nil {
		t.Fatalf("gatherTargets failed: %v", err)
	}
	if len(targets) != 2 || targets[1] != "server02" {
		t.Errorf("targets = %v", targets)
	}
}

func TestGatherTargetsDashMixesArgsAndStdin(t *testing.T) {
	targets, err := gatherTargets([]string{"server01", "-"}, strings.NewReader("server02\n"))
	if err != nil {
		t.Fatalf("gatherTargets failed: %v", err)
	}
	if len(targets) != 2 || targets[0] != "server01" || targets[1] != "server02" {
		t.Errorf("targets = %v", targets)
	}
}

func TestPrintResult(t *testing.T) {
	res := engine.CheckResult{
		Target:         "server01",
		RebootRequired: tristate.True,
		Signals: probe.Signals{
			probe.SignalRegistryPending: tristate.True,
			probe.SignalServicingMarker: tristate.False,
		},
	}

	var text bytes.Buffer
	printResult(&text, res, false)
	for _, want := range []string{"Target=server01", "RebootRequired=True", "RegistryPending=True", "ServicingMarkerPresent=False"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output %q missing %q", text.String(), want)
		}
	}

	var asJSON bytes.Buffer
	printResult(&asJSON, res, true)
	for _, want := range []string{`"target":"server01"`, `"rebootRequired":"True"`} {
		if !strings.Contains(asJSON.String(), want) {
			t.Errorf("json output %q missing %q", asJSON.String(), want)
		}
	}
}

func TestPrintResultDenied(t *testing.T) {
	res := engine.CheckResult{
		Target:                 "server02",
		RebootRequired:         tristate.Unknown,
		Signals:                probe.NewSignals(),
		RemoteConnectionDenied: true,
		DeniedClass:            "ConnectionRefused",
		DeniedReason:           "remote endpoint refused the connection",
	}

	var text bytes.Buffer
	printResult(&text, res, false)
	if !strings.Contains(text.String(), "DeniedClass=ConnectionRefused") {
		t.Errorf("denied output missing class: %q", text.String())
	}
}

func TestQualifiedUser(t *testing.T) {
	cfg := config.Config{Domain: "CORP", Username: "svc"}
	if got := qualifiedUser(cfg); got != `CORP\svc` {
		t.Errorf("qualifiedUser = %q, want CORP\\svc", got)
	}
	cfg = config.Config{Username: `CORP\svc`, Domain: "CORP"}
	if got := qualifiedUser(cfg); got != `CORP\svc` {
		t.Errorf("already-qualified user mangled: %q", got)
	}
	cfg = config.Config{Username: "svc"}
	if got := qualifiedUser(cfg); got != "svc" {
		t.Errorf("qualifiedUser = %q, want svc", got)
	}
}

func TestConfirmer(t *testing.T) {
	var out bytes.Buffer
	c := &stdinConfirmer{in: strings.NewReader("y\n"), out: &out}
	if !c.Confirm("server01") {
		t.Error("y should confirm")
	}
	if !strings.Contains(out.String(), "server01") {
		t.Errorf("prompt %q does not name the target", out.String())
	}

	c = &stdinConfirmer{in: strings.NewReader("n\n"), out: &out}
	if c.Confirm("server01") {
		t.Error("n should decline")
	}

	c = &stdinConfirmer{in: strings.NewReader(""), out: &out}
	if c.Confirm("server01") {
		t.Error("EOF should decline")
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"check", "history"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}
