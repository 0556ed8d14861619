// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package appinstall

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	log "github.com/sirupsen/logrus"
)

const fallbackBranch = "main"

// SourceBuild installs the gateway from a git checkout.
//
// An existing checkout is forced onto the remote default branch with
// `git reset --hard`; local changes in the source directory are discarded.
type SourceBuild struct {
	runner domain.CommandRunner
	files  domain.FileManager
}

// NewSourceBuild creates the git install strategy.
func NewSourceBuild(runner domain.CommandRunner, files domain.FileManager) *SourceBuild {
	return &SourceBuild{runner: runner, files: files}
}

// Method returns the install method this strategy serves.
func (s *SourceBuild) Method() domain.InstallMethod {
	return domain.MethodGit
}

// Install syncs the checkout, builds it with pnpm and installs it globally.
func (s *SourceBuild) Install(ctx context.Context, cfg domain.RunConfiguration) error {
	dir := cfg.SourceDir

	if err := s.sync(ctx, cfg.SourceRepo, dir); err != nil {
		return domain.NewProvisioningError("sync "+dir, err)
	}

	if !s.runner.CommandExists("pnpm") {
		if err := s.runner.RunPrivileged(ctx, false, "npm", "install", "-g", "pnpm"); err != nil {
			return domain.NewProvisioningError("install pnpm", err)
		}
	}

	for _, script := range []string{"install", "ui:build", "build"} {
		if err := s.runner.Execute(ctx, "pnpm", "-C", dir, script); err != nil {
			return domain.NewProvisioningError("pnpm "+script, err)
		}
	}

	if err := s.runner.RunPrivileged(ctx, false, "npm", "install", "-g", dir); err != nil {
		return domain.NewProvisioningError("install "+dir, err)
	}

	return nil
}

func (s *SourceBuild) sync(ctx context.Context, repo, dir string) error {
	if !s.files.FileExists(filepath.Join(dir, ".git")) {
		log.WithFields(log.Fields{"repo": repo, "dir": dir}).Info("cloning gateway sources")

		return s.runner.Execute(ctx, "git", "clone", repo, dir)
	}

	if err := s.runner.Execute(ctx, "git", "-C", dir, "fetch", "origin"); err != nil {
		return err
	}

	branch := s.defaultBranch(ctx, dir)

	log.WithFields(log.Fields{"dir": dir, "branch": branch}).Warn("resetting existing checkout to origin")

	if err := s.runner.Execute(ctx, "git", "-C", dir, "checkout", branch); err != nil {
		return err
	}

	return s.runner.Execute(ctx, "git", "-C", dir, "reset", "--hard", "origin/"+branch)
}

// defaultBranch resolves origin/HEAD, falling back to main.
func (s *SourceBuild) defaultBranch(ctx context.Context, dir string) string {
	output, err := s.runner.ExecuteWithOutput(ctx, "git", "-C", dir, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err != nil {
		return fallbackBranch
	}

	branch := strings.TrimPrefix(strings.TrimSpace(output), "origin/")
	if branch == "" {
		return fallbackBranch
	}

	return branch
}
