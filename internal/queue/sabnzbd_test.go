package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/pkg/episode"
)

const queueXML = `<?xml version="1.0" encoding="UTF-8"?>
<queue>
  <slot>
    <nzo_id>SABnzbd_nzo_p86tgx</nzo_id>
    <filename>Example - 1x02 - The Heist</filename>
    <cat>tv</cat>
    <msgid></msgid>
    <mb>350.00</mb>
    <mbleft>120.00</mbleft>
  </slot>
  <slot>
    <nzo_id>SABnzbd_nzo_k21df0</nzo_id>
    <filename>Other Show - 3x05</filename>
    <cat>movies</cat>
    <msgid></msgid>
    <mb>700.00</mb>
    <mbleft>700.00</mbleft>
  </slot>
  <slot>
    <nzo_id>SABnzbd_nzo_z9q44m</nzo_id>
    <filename>Example - 2x01-03 - Openers</filename>
    <cat>tv</cat>
    <msgid>12345</msgid>
    <mb>1050.00</mb>
    <mbleft>25.50</mbleft>
  </slot>
</queue>`

type stubProgress struct {
	records map[string]*metadata.InProgress
}

func (s stubProgress) GetInProgress(title string) (*metadata.InProgress, error) {
	if rec, ok := s.records[title]; ok {
		return rec, nil
	}
	return nil, metadata.ErrNotFound
}

func newTestQueue(t *testing.T, handler http.Handler, progress ProgressLookup) (*SABnzbd, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.SABnzbdConfig{Root: srv.URL, APIKey: "secret", Category: "tv"}
	q, err := NewSABnzbd(cfg, episode.QualityHigh, progress, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	q.settleDelay = time.Millisecond
	return q, srv
}

func TestNewSABnzbdRejectsBadRoot(t *testing.T) {
	for _, root := range []string{"", "localhost:8080", "not a url"} {
		if _, err := NewSABnzbd(config.SABnzbdConfig{Root: root}, episode.QualityHigh, nil, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
			t.Errorf("root %q accepted, want error", root)
		}
	}
}

func TestJobsFiltersCategoryAndResolvesQuality(t *testing.T) {
	progress := stubProgress{records: map[string]*metadata.InProgress{
		"Example - 2x01-03 - Openers": {Title: "Example - 2x01-03 - Openers", Source: "newzbin", Quality: episode.QualityMedium},
	}}
	q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "secret" {
			t.Error("apikey not sent")
		}
		fmt.Fprint(w, queueXML)
	}), progress)

	jobs, err := q.Jobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2 tv-category jobs", len(jobs))
	}

	single := jobs[0]
	if single.Episode.Key() != "example 1x02" {
		t.Errorf("first job episode = %q, want example 1x02", single.Episode.Key())
	}
	if single.Episode.Quality != episode.QualityHigh {
		t.Errorf("hand-added job quality = %v, want assumed desired high", single.Episode.Quality)
	}

	if single.ID != "SABnzbd_nzo_p86tgx" {
		t.Errorf("job id = %q, want SABnzbd_nzo_p86tgx", single.ID)
	}
	if single.Size != 350*1024*1024 || single.Remaining != 120*1024*1024 {
		t.Errorf("job size/remaining = %d/%d, want byte counts from mb fields", single.Size, single.Remaining)
	}

	multi := jobs[1]
	if multi.ReportID != "12345" {
		t.Errorf("report id = %q, want 12345", multi.ReportID)
	}
	if multi.Episode.Kind != episode.KindMulti {
		t.Errorf("second job kind = %v, want multi", multi.Episode.Kind)
	}
	if multi.Episode.Quality != episode.QualityMedium {
		t.Errorf("tracked job quality = %v, want medium from in-progress record", multi.Episode.Quality)
	}
}

func TestJobsWaitsForQueueToSettle(t *testing.T) {
	var calls int
	q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			fmt.Fprint(w, `<queue><slot><filename>fetch nzb</filename><cat>tv</cat></slot></queue>`)
			return
		}
		fmt.Fprint(w, queueXML)
	}), nil)

	jobs, err := q.Jobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("queue fetched %d times, want 3", calls)
	}
	if len(jobs) != 2 {
		t.Errorf("jobs = %d, want 2", len(jobs))
	}
}

func TestJobsErrorDocument(t *testing.T) {
	q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<error>api key incorrect</error>`)
	}), nil)

	if _, err := q.Jobs(context.Background()); !errors.Is(err, ErrQueueRetrieval) {
		t.Errorf("err = %v, want ErrQueueRetrieval", err)
	}
}

func TestInQueue(t *testing.T) {
	q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, queueXML)
	}), nil)

	queued, _ := episode.NewSingle("Example", 1, 2)
	missing, _ := episode.NewSingle("Example", 9, 9)

	if ok, err := InQueue(context.Background(), q, queued); err != nil || !ok {
		t.Errorf("InQueue(1x02) = %v, %v, want true", ok, err)
	}
	if ok, err := InQueue(context.Background(), q, missing); err != nil || ok {
		t.Errorf("InQueue(9x09) = %v, %v, want false", ok, err)
	}
}

func TestEnqueue(t *testing.T) {
	tests := []struct {
		name     string
		item     feed.Item
		wantMode string
		wantName string
	}{
		{
			name:     "nzb url",
			item:     feed.Item{Title: "Example - 1x03", URL: "http://indexer/get/42", Priority: feed.PriorityNormal},
			wantMode: "addurl",
			wantName: "http://indexer/get/42",
		},
		{
			name:     "newzbin report",
			item:     feed.Item{Title: "Example - 1x04", ReportID: "9876", Priority: feed.PriorityForce},
			wantMode: "addid",
			wantName: "9876",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = map[string]string{
					"mode":     r.URL.Query().Get("mode"),
					"name":     r.URL.Query().Get("name"),
					"cat":      r.URL.Query().Get("cat"),
					"priority": r.URL.Query().Get("priority"),
				}
				fmt.Fprintln(w, "ok")
			}), nil)

			if err := q.Enqueue(context.Background(), tt.item); err != nil {
				t.Fatal(err)
			}
			if got["mode"] != tt.wantMode || got["name"] != tt.wantName {
				t.Errorf("request mode=%q name=%q, want %q/%q", got["mode"], got["name"], tt.wantMode, tt.wantName)
			}
			if got["cat"] != "tv" {
				t.Errorf("cat = %q, want tv", got["cat"])
			}
			if got["priority"] != fmt.Sprint(tt.item.Priority.Integer()) {
				t.Errorf("priority = %q, want %d", got["priority"], tt.item.Priority.Integer())
			}
		})
	}
}

func TestEnqueueRejected(t *testing.T) {
	q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "error: no such category")
	}), nil)

	err := q.Enqueue(context.Background(), feed.Item{Title: "Example - 1x03", URL: "http://x/1"})
	if !errors.Is(err, ErrQueueInsertion) {
		t.Errorf("err = %v, want ErrQueueInsertion", err)
	}
}

func TestEnqueueInvalidatesJobsCache(t *testing.T) {
	var queueCalls int
	q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") == "queue" {
			queueCalls++
			fmt.Fprint(w, queueXML)
			return
		}
		fmt.Fprintln(w, "ok")
	}), nil)

	ctx := context.Background()
	if _, err := q.Jobs(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Jobs(ctx); err != nil {
		t.Fatal(err)
	}
	if queueCalls != 1 {
		t.Fatalf("queue fetched %d times before enqueue, want cached single fetch", queueCalls)
	}
	if err := q.Enqueue(ctx, feed.Item{Title: "Example - 1x05", URL: "http://x/5"}); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Jobs(ctx); err != nil {
		t.Fatal(err)
	}
	if queueCalls != 2 {
		t.Errorf("queue fetched %d times after enqueue, want refetch", queueCalls)
	}
}

func TestRemove(t *testing.T) {
	var got map[string]string
	q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"mode":  r.URL.Query().Get("mode"),
			"name":  r.URL.Query().Get("name"),
			"value": r.URL.Query().Get("value"),
		}
		fmt.Fprintln(w, "ok")
	}), nil)

	job := Job{ID: "SABnzbd_nzo_p86tgx", Title: "Example - 1x02"}
	if err := q.Remove(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if got["mode"] != "queue" || got["name"] != "delete" || got["value"] != job.ID {
		t.Errorf("request = %v, want queue/delete/%s", got, job.ID)
	}
}

func TestProcessed(t *testing.T) {
	backup := t.TempDir()
	for _, name := range []string{"Example - 1x02 - The Heist.nzb.gz", "unrelated.nzb"} {
		if err := os.WriteFile(filepath.Join(backup, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	cfg := config.SABnzbdConfig{Root: srv.URL, Category: "tv", BackupDir: backup}
	q, err := NewSABnzbd(cfg, episode.QualityHigh, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}

	if !q.Processed(feed.Item{Title: "Example - 1x02 - The Heist"}) {
		t.Error("backed-up item not reported as processed")
	}
	if q.Processed(feed.Item{Title: "Example - 9x09"}) {
		t.Error("unknown item reported as processed")
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"0.5.6", false},
		{"4.2.1", false},
		{"0.4.12", true},
		{"nonsense", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			q, _ := newTestQueue(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, tt.version)
			}), nil)
			err := q.Verify(context.Background())
			if tt.wantErr && !errors.Is(err, ErrUnsupportedQueue) {
				t.Errorf("version %s: err = %v, want ErrUnsupportedQueue", tt.version, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("version %s: err = %v", tt.version, err)
			}
		})
	}
}
