package gitrepo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes one git command in dir and returns its combined output.
// It exists so tests can record and stub command invocations.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

func execRunner(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return string(out), nil
}

// Repo is a local checkout of the target repository. All mutations the
// import pipeline performs on the working tree go through here.
type Repo struct {
	dir string
	run Runner
}

func Open(dir string) *Repo {
	return &Repo{dir: dir, run: execRunner}
}

// WithRunner returns a copy of the repo using run for command execution.
func (r *Repo) WithRunner(run Runner) *Repo {
	return &Repo{dir: r.dir, run: run}
}

func (r *Repo) Dir() string { return r.dir }

// ConfigureUser sets the local committer identity for automated commits.
func (r *Repo) ConfigureUser(ctx context.Context, name, email string) error {
	if _, err := r.run(ctx, r.dir, "config", "--local", "user.name", name); err != nil {
		return err
	}
	_, err := r.run(ctx, r.dir, "config", "--local", "user.email", email)
	return err
}

func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, r.dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Checkout switches the working tree to branch. With create it branches off
// the current HEAD; otherwise the branch must already exist (locally or on
// the remote).
func (r *Repo) Checkout(ctx context.Context, branch string, create bool) error {
	if create {
		_, err := r.run(ctx, r.dir, "checkout", "-b", branch)
		return err
	}
	_, err := r.run(ctx, r.dir, "checkout", branch)
	return err
}

// HasChanges reports whether the working tree differs from HEAD, including
// untracked files (a first-ever snapshot file is untracked).
func (r *Repo) HasChanges(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, r.dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages every change in the working tree and commits it.
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	if _, err := r.run(ctx, r.dir, "add", "--all"); err != nil {
		return err
	}
	_, err := r.run(ctx, r.dir, "commit", "-m", message)
	return err
}

// Push pushes the current branch. setUpstream is needed on the first push of
// a newly created branch.
func (r *Repo) Push(ctx context.Context, setUpstream bool) error {
	if setUpstream {
		_, err := r.run(ctx, r.dir, "push", "-u", "origin", "HEAD")
		return err
	}
	_, err := r.run(ctx, r.dir, "push")
	return err
}
