package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// newTestClient points a Client at a local httptest server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(context.Background(), "test-token")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	c.Client.BaseURL = base
	c.Client.UploadURL = base
	return c
}

func TestBranchExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/data-repo/branches/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/data-repo/branches/feature/automatic-fondsnet-data-import":
			_, _ = w.Write([]byte(`{"name": "feature/automatic-fondsnet-data-import"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Branch not found"}`))
		}
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	exists, err := c.BranchExists(ctx, "acme", "data-repo", "feature/automatic-fondsnet-data-import")
	if err != nil {
		t.Fatalf("BranchExists returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected branch to exist")
	}

	exists, err = c.BranchExists(ctx, "acme", "data-repo", "feature/other")
	if err != nil {
		t.Fatalf("BranchExists returned error: %v", err)
	}
	if exists {
		t.Fatal("expected branch to not exist")
	}
}

func TestEnsurePullRequest_ReusesOpenPR(t *testing.T) {
	created := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/data-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("head"); got != "acme:feature/automatic-fondsnet-data-import" {
			t.Errorf("head filter = %q", got)
		}
		_, _ = w.Write([]byte(`[{"number": 42, "state": "open"}]`))
	})
	mux.HandleFunc("POST /repos/acme/data-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		created = true
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number": 43}`))
	})
	c := newTestClient(t, mux)

	pr, wasCreated, err := c.EnsurePullRequest(context.Background(), "acme", "data-repo", PullRequestSpec{
		Head:  "feature/automatic-fondsnet-data-import",
		Base:  "master",
		Title: "Update FONDSNET data",
	})
	if err != nil {
		t.Fatalf("EnsurePullRequest returned error: %v", err)
	}
	if wasCreated || created {
		t.Fatal("expected existing PR to be reused, not created")
	}
	if pr.GetNumber() != 42 {
		t.Fatalf("PR number = %d, want 42", pr.GetNumber())
	}
}

func TestEnsurePullRequest_CreatesAndRequestsReviewers(t *testing.T) {
	var gotBody map[string]any
	var gotReviewers []any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/data-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /repos/acme/data-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode create body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number": 7}`))
	})
	mux.HandleFunc("POST /repos/acme/data-repo/pulls/7/requested_reviewers", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode reviewers body: %v", err)
		}
		gotReviewers, _ = body["reviewers"].([]any)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number": 7}`))
	})
	c := newTestClient(t, mux)

	pr, wasCreated, err := c.EnsurePullRequest(context.Background(), "acme", "data-repo", PullRequestSpec{
		Head:      "feature/automatic-fondsnet-data-import",
		Base:      "master",
		Title:     "Update FONDSNET data",
		Body:      "Automatic import.",
		Reviewers: []string{"alice", "bob"},
	})
	if err != nil {
		t.Fatalf("EnsurePullRequest returned error: %v", err)
	}
	if !wasCreated {
		t.Fatal("expected PR to be created")
	}
	if pr.GetNumber() != 7 {
		t.Fatalf("PR number = %d, want 7", pr.GetNumber())
	}
	if gotBody["title"] != "Update FONDSNET data" || gotBody["base"] != "master" {
		t.Fatalf("unexpected create payload: %v", gotBody)
	}
	if len(gotReviewers) != 2 {
		t.Fatalf("expected 2 requested reviewers, got %v", gotReviewers)
	}
}
