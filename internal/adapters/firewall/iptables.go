// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package firewall

import (
	"context"
	"fmt"
	"strconv"

	"github.com/coreos/go-iptables/iptables"
	"github.com/janderssonse/clawdhost/internal/domain"
)

const (
	iptablesRulesPath = "/etc/iptables/iptables.rules"
	filterTable       = "filter"
)

// ruleTable is the part of *iptables.IPTables the backend uses.
type ruleTable interface {
	AppendUnique(table, chain string, rulespec ...string) error
	ChangePolicy(table, chain, target string) error
}

// IPTables configures raw iptables rules on pacman hosts and persists them
// for the iptables unit.
type IPTables struct {
	deps  Deps
	table func(ctx context.Context) (ruleTable, error)
}

// NewIPTables creates the iptables backend. As root the rules go through
// go-iptables; otherwise, and in dry-run mode, through the command runner.
func NewIPTables(deps Deps) *IPTables {
	return &IPTables{deps: deps, table: func(ctx context.Context) (ruleTable, error) {
		if deps.DryRun || !deps.Runner.IsPrivileged() {
			return runnerTable{ctx: ctx, runner: deps.Runner}, nil
		}

		client, err := iptables.NewWithProtocol(iptables.ProtocolIPv4)
		if err != nil {
			return nil, fmt.Errorf("failed to open iptables: %w", err)
		}

		return client, nil
	}}
}

// Name returns the firewall name.
func (t *IPTables) Name() string {
	return "iptables"
}

// Configure appends the accept rules that are missing, sets the chain
// policies and saves the ruleset.
func (t *IPTables) Configure(ctx context.Context, ports []int) error {
	if err := t.deps.Packages.EnsurePackages(ctx, "iptables"); err != nil {
		return err
	}

	table, err := t.table(ctx)
	if err != nil {
		return err
	}

	for _, rule := range inputRules(ports) {
		if err := table.AppendUnique(filterTable, "INPUT", rule...); err != nil {
			return fmt.Errorf("failed to add INPUT rule %v: %w", rule, err)
		}
	}

	// Accept rules precede the DROP policy so SSH is never cut off.
	if err := table.ChangePolicy(filterTable, "INPUT", "DROP"); err != nil {
		return fmt.Errorf("failed to set INPUT policy: %w", err)
	}

	if err := table.ChangePolicy(filterTable, "OUTPUT", "ACCEPT"); err != nil {
		return fmt.Errorf("failed to set OUTPUT policy: %w", err)
	}

	return t.persist(ctx)
}

func (t *IPTables) persist(ctx context.Context) error {
	rules, err := t.deps.Runner.RunPrivilegedWithOutput(ctx, "iptables-save")
	if err != nil {
		return fmt.Errorf("failed to save iptables rules: %w", err)
	}

	if err := t.deps.Files.WriteFile(ctx, iptablesRulesPath, []byte(rules)); err != nil {
		return fmt.Errorf("failed to persist iptables rules: %w", err)
	}

	if err := t.deps.Runner.RunPrivileged(ctx, false, "systemctl", "enable", "iptables"); err != nil {
		return fmt.Errorf("failed to enable iptables unit: %w", err)
	}

	return nil
}

func inputRules(ports []int) [][]string {
	rules := [][]string{
		{"-i", "lo", "-j", "ACCEPT"},
		{"-m", "conntrack", "--ctstate", "ESTABLISHED,RELATED", "-j", "ACCEPT"},
	}

	for _, port := range ports {
		rules = append(rules, []string{"-p", "tcp", "--dport", strconv.Itoa(port), "-j", "ACCEPT"})
	}

	return rules
}

// runnerTable drives the iptables binary through the command runner. It
// lives for a single Configure call.
type runnerTable struct {
	ctx    context.Context //nolint:containedctx
	runner domain.CommandRunner
}

func (r runnerTable) AppendUnique(table, chain string, rulespec ...string) error {
	check := append([]string{"-t", table, "-C", chain}, rulespec...)
	if _, err := r.runner.RunPrivilegedWithOutput(r.ctx, "iptables", check...); err == nil {
		return nil
	}

	return r.runner.RunPrivileged(r.ctx, false, "iptables", append([]string{"-t", table, "-A", chain}, rulespec...)...)
}

func (r runnerTable) ChangePolicy(table, chain, target string) error {
	return r.runner.RunPrivileged(r.ctx, false, "iptables", "-t", table, "-P", chain, target)
}
