package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fondsync/internal/config"
	"fondsync/internal/gitrepo"
	"fondsync/internal/output"
	"fondsync/internal/snapshot"
	"fondsync/internal/vendorapi"
)

type fakeHost struct {
	branchExists bool
	openPR       int // 0 means no open PR
	nextPR       int

	ensured []PullRequestSpec
}

func (h *fakeHost) BranchExists(_ context.Context, _ string) (bool, error) {
	return h.branchExists, nil
}

func (h *fakeHost) EnsurePullRequest(_ context.Context, spec PullRequestSpec) (int, bool, error) {
	h.ensured = append(h.ensured, spec)
	if h.openPR != 0 {
		return h.openPR, false, nil
	}
	h.openPR = h.nextPR
	return h.nextPR, true, nil
}

type fakeSource struct {
	sets map[vendorapi.EntityType]vendorapi.RecordSet
	err  error
}

func (s *fakeSource) FetchRecords(_ context.Context, entity vendorapi.EntityType) (vendorapi.RecordSet, error) {
	if s.err != nil {
		return vendorapi.RecordSet{}, s.err
	}
	return s.sets[entity], nil
}

// fakeGit records invocations and serves canned output, standing in for the
// real git binary.
type fakeGit struct {
	calls  [][]string
	output map[string]string
}

func (g *fakeGit) run(_ context.Context, _ string, args ...string) (string, error) {
	g.calls = append(g.calls, args)
	return g.output[strings.Join(args, " ")], nil
}

func (g *fakeGit) called(args ...string) bool {
	want := strings.Join(args, " ")
	for _, call := range g.calls {
		if strings.Join(call, " ") == want {
			return true
		}
	}
	return false
}

func (g *fakeGit) commitMessage() string {
	for _, call := range g.calls {
		if len(call) >= 3 && call[0] == "commit" && call[1] == "-m" {
			return call[2]
		}
	}
	return ""
}

type fixture struct {
	cfg    *config.Config
	host   *fakeHost
	git    *fakeGit
	source *fakeSource
	p      *Pipeline
}

func contactsSet() vendorapi.RecordSet {
	return vendorapi.RecordSet{
		Entity: vendorapi.EntityContacts,
		Records: []vendorapi.Record{
			{ID: "8", Fields: map[string]string{"email": "orders@axa.example"}},
			{ID: "30", Fields: map[string]string{"email": "orders@hdi.example"}},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repoDir := t.TempDir()

	cfg := config.New()
	cfg.GitHub.Repository = "acme/data-repo"
	cfg.Import.RepoDir = repoDir
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	host := &fakeHost{nextPR: 7}
	git := &fakeGit{output: map[string]string{
		"rev-parse --abbrev-ref HEAD": "master\n",
		"status --porcelain":          " M data/fixtures/fondsnet-contacts.yaml\n",
	}}
	source := &fakeSource{sets: map[vendorapi.EntityType]vendorapi.RecordSet{
		vendorapi.EntityContacts: contactsSet(),
		vendorapi.EntityCompanies: {Entity: vendorapi.EntityCompanies, Records: []vendorapi.Record{
			{ID: "1", Fields: map[string]string{"name": "HDI"}},
		}},
		vendorapi.EntityDealers: {Entity: vendorapi.EntityDealers},
	}}

	repo := gitrepo.Open(repoDir).WithRunner(git.run)
	console := output.NewConsole(io.Discard)
	p := New(cfg, host, repo, source, console).WithClock(func() time.Time {
		return time.Date(2026, 8, 26, 6, 0, 0, 0, time.UTC)
	})

	return &fixture{cfg: cfg, host: host, git: git, source: source, p: p}
}

func TestRun_FirstRunCreatesBranchCommitAndPR(t *testing.T) {
	f := newFixture(t)

	if err := f.p.Run(context.Background(), []vendorapi.EntityType{vendorapi.EntityContacts}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !f.git.called("checkout", "-b", f.cfg.GitHub.FeatureBranch) {
		t.Errorf("expected new branch checkout, calls: %v", f.git.calls)
	}
	if !f.git.called("push", "-u", "origin", "HEAD") {
		t.Errorf("expected upstream push, calls: %v", f.git.calls)
	}

	msg := f.git.commitMessage()
	if !strings.HasPrefix(msg, "feat(fixtures): update FONDSNET contacts data") {
		t.Errorf("commit message = %q", msg)
	}
	if strings.HasPrefix(msg, "fixup!") {
		t.Errorf("first commit must not be a fixup: %q", msg)
	}
	if !strings.Contains(msg, "2026-08-26T06:00:00Z") {
		t.Errorf("commit message missing import timestamp: %q", msg)
	}

	if len(f.host.ensured) != 1 {
		t.Fatalf("expected one EnsurePullRequest call, got %d", len(f.host.ensured))
	}
	spec := f.host.ensured[0]
	if spec.Head != f.cfg.GitHub.FeatureBranch || spec.Base != "master" {
		t.Errorf("PR spec = %+v", spec)
	}

	// Snapshot is written into the working tree.
	path := snapshot.Path(filepath.Join(f.cfg.Import.RepoDir, f.cfg.Import.DataDir), vendorapi.EntityContacts)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected snapshot at %s: %v", path, err)
	}
}

func TestRun_ExistingBranchUsesFixupAndPlainPush(t *testing.T) {
	f := newFixture(t)
	f.host.branchExists = true

	if err := f.p.Run(context.Background(), []vendorapi.EntityType{vendorapi.EntityContacts}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !f.git.called("checkout", f.cfg.GitHub.FeatureBranch) {
		t.Errorf("expected plain checkout of existing branch, calls: %v", f.git.calls)
	}
	if !f.git.called("push") {
		t.Errorf("expected plain push, calls: %v", f.git.calls)
	}
	if msg := f.git.commitMessage(); !strings.HasPrefix(msg, "fixup! feat(fixtures): update FONDSNET contacts data") {
		t.Errorf("commit message = %q", msg)
	}
}

func TestRun_NoChangesShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.git.output["status --porcelain"] = ""

	if err := f.p.Run(context.Background(), []vendorapi.EntityType{vendorapi.EntityContacts}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if f.git.commitMessage() != "" {
		t.Errorf("expected no commit, calls: %v", f.git.calls)
	}
	if f.git.called("push") || f.git.called("push", "-u", "origin", "HEAD") {
		t.Errorf("expected no push, calls: %v", f.git.calls)
	}
	if len(f.host.ensured) != 0 {
		t.Errorf("expected no EnsurePullRequest call, got %d", len(f.host.ensured))
	}
}

func TestRun_FetchFailureRestoresOriginalBranch(t *testing.T) {
	f := newFixture(t)
	f.source.err = errors.New("vendor unavailable")

	err := f.p.Run(context.Background(), []vendorapi.EntityType{vendorapi.EntityContacts})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageFetch {
		t.Fatalf("expected fetch stage error, got %v", err)
	}
	if !f.git.called("checkout", "master") {
		t.Errorf("expected original branch to be restored, calls: %v", f.git.calls)
	}
}

func TestImport_SecondRunIsNoChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entities := []vendorapi.EntityType{vendorapi.EntityContacts}

	first, err := f.p.Import(ctx, entities)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(first) != 1 || !first[0].Changed {
		t.Fatalf("expected first import to be changed, got %+v", first)
	}

	second, err := f.p.Import(ctx, entities)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(second) != 1 || second[0].Changed {
		t.Fatalf("expected second import to be no-change, got %+v", second)
	}
}

func TestImport_AllEntitiesWriteSeparateSnapshots(t *testing.T) {
	f := newFixture(t)

	outcomes, err := f.p.Import(context.Background(), vendorapi.AllEntityTypes())
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for _, entity := range vendorapi.AllEntityTypes() {
		path := snapshot.Path(filepath.Join(f.cfg.Import.RepoDir, f.cfg.Import.DataDir), entity)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected snapshot for %s at %s: %v", entity, path, err)
		}
	}
}

func TestPublish_RequestsReviewersFromTeamConfig(t *testing.T) {
	f := newFixture(t)
	teamPath := filepath.Join(f.cfg.Import.RepoDir, f.cfg.Review.TeamConfig)
	if err := os.MkdirAll(filepath.Dir(teamPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(teamPath, []byte("name: FONDSNET Data\nmembers:\n  - alice\n  - bob\n"), 0o644); err != nil {
		t.Fatalf("write team config: %v", err)
	}

	if err := f.p.Publish(context.Background(), []vendorapi.EntityType{vendorapi.EntityContacts}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(f.host.ensured) != 1 {
		t.Fatalf("expected one EnsurePullRequest call, got %d", len(f.host.ensured))
	}
	got := f.host.ensured[0].Reviewers
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("reviewers = %v", got)
	}
}

func TestPublish_ExistingPRIsNotDuplicated(t *testing.T) {
	f := newFixture(t)
	f.host.openPR = 42

	if err := f.p.Publish(context.Background(), []vendorapi.EntityType{vendorapi.EntityContacts}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if f.host.openPR != 42 {
		t.Fatalf("expected open PR to stay #42, got #%d", f.host.openPR)
	}
}
