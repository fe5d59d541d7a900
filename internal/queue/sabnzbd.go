package queue

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/mediarover/internal/config"
	"github.com/vmunix/mediarover/internal/feed"
	"github.com/vmunix/mediarover/internal/metadata"
	"github.com/vmunix/mediarover/pkg/episode"
)

// ProgressLookup resolves the in-progress record for a queued job
// title. The metadata store implements it.
type ProgressLookup interface {
	GetInProgress(title string) (*metadata.InProgress, error)
}

// SABnzbd drives a SABnzbd daemon over its web API.
type SABnzbd struct {
	root      string
	apiKey    string
	username  string
	password  string
	category  string
	backupDir string

	desired  episode.Quality
	progress ProgressLookup
	client   *http.Client
	log      *slog.Logger

	// settleDelay is how long to wait between queue polls while
	// SABnzbd is still fetching newly scheduled nzbs.
	settleDelay time.Duration

	mu      sync.Mutex
	jobs    []Job
	fetched bool
}

var _ Queue = (*SABnzbd)(nil)

var schemePattern = regexp.MustCompile(`^\w+://`)

// NewSABnzbd builds a client from the queue configuration. The desired
// quality is assumed for jobs that were queued outside the scheduler
// and so have no in-progress record.
func NewSABnzbd(cfg config.SABnzbdConfig, desired episode.Quality, progress ProgressLookup, log *slog.Logger) (*SABnzbd, error) {
	root := strings.TrimRight(cfg.Root, "/")
	if root == "" || !schemePattern.MatchString(root) {
		return nil, fmt.Errorf("%w: invalid root url %q", ErrQueueRetrieval, cfg.Root)
	}
	return &SABnzbd{
		root:        root,
		apiKey:      cfg.APIKey,
		username:    cfg.Username,
		password:    cfg.Password,
		category:    cfg.Category,
		backupDir:   cfg.BackupDir,
		desired:     desired,
		progress:    progress,
		client:      &http.Client{Timeout: 60 * time.Second},
		log:         log.With("component", "queue", "queue", "sabnzbd"),
		settleDelay: 5 * time.Second,
	}, nil
}

// Verify checks that the daemon answers and is at least version 0.5,
// the first release with the api surface this client uses.
func (q *SABnzbd) Verify(ctx context.Context) error {
	body, err := q.get(ctx, url.Values{"mode": []string{"version"}})
	if err != nil {
		return err
	}
	version := strings.TrimSpace(string(body))
	major, minor, ok := splitVersion(version)
	if !ok || (major == 0 && minor < 5) {
		return fmt.Errorf("%w: sabnzbd 0.5.0 or greater required, got %q", ErrUnsupportedQueue, version)
	}
	return nil
}

func splitVersion(v string) (major, minor int, ok bool) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// Jobs returns the queue contents, filtered to the configured
// category. The first call fetches and caches; Enqueue invalidates.
func (q *SABnzbd) Jobs(ctx context.Context) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fetched {
		return q.jobs, nil
	}

	slots, err := q.fetchQueue(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(slots))
	for _, slot := range slots {
		if !strings.EqualFold(slot.Category, q.category) {
			continue
		}
		job, err := q.buildJob(slot)
		if err != nil {
			q.log.Warn("skipping unparseable queue job", "title", slot.Filename, "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	q.jobs = jobs
	q.fetched = true
	return jobs, nil
}

type sabSlot struct {
	NzoID    string  `xml:"nzo_id"`
	Filename string  `xml:"filename"`
	Category string  `xml:"cat"`
	MsgID    string  `xml:"msgid"`
	MB       float64 `xml:"mb"`
	MBLeft   float64 `xml:"mbleft"`
}

type sabQueue struct {
	Slots []sabSlot
	Error string
}

// unmarshalQueue tolerates both response shapes: a <queue> document
// with <slot> children, or a bare <error> element.
func unmarshalQueue(body []byte, out *sabQueue) error {
	var root struct {
		XMLName xml.Name
		Text    string    `xml:",chardata"`
		Slots   []sabSlot `xml:"slot"`
		Error   string    `xml:"error"`
	}
	if err := xml.Unmarshal(body, &root); err != nil {
		return err
	}
	if root.XMLName.Local == "error" {
		out.Error = strings.TrimSpace(root.Text)
		return nil
	}
	out.Slots = root.Slots
	out.Error = strings.TrimSpace(root.Error)
	return nil
}

// fetchQueue polls the queue document. SABnzbd takes a few seconds to
// fetch a freshly scheduled nzb; until then the job shows up with a
// placeholder "fetch" name, which would defeat duplicate checks. Poll
// until the placeholders clear or we give up.
func (q *SABnzbd) fetchQueue(ctx context.Context) ([]sabSlot, error) {
	args := url.Values{"mode": []string{"queue"}, "output": []string{"xml"}}
	if q.apiKey == "" {
		q.log.Warn("api key missing, queue checks may be rejected")
	}

	var body []byte
	for attempt := 0; attempt < 12; attempt++ {
		var err error
		body, err = q.get(ctx, args)
		if err != nil {
			return nil, err
		}
		if !strings.Contains(string(body), "fetch") {
			break
		}
		q.log.Debug("queue still fetching scheduled downloads, waiting")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrQueueRetrieval, ctx.Err())
		case <-time.After(q.settleDelay):
		}
		if attempt == 11 {
			q.log.Warn("queue never finished fetching scheduled downloads, duplicates possible")
		}
	}

	var parsed sabQueue
	if err := unmarshalQueue(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueRetrieval, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrQueueRetrieval, parsed.Error)
	}
	return parsed.Slots, nil
}

// buildJob parses a queue slot into a Job. Quality comes from the
// in-progress record when the scheduler queued the item, otherwise the
// nzb was added by hand and the desired band is assumed.
func (q *SABnzbd) buildJob(slot sabSlot) (Job, error) {
	quality := q.desired
	if q.progress != nil {
		record, err := q.progress.GetInProgress(slot.Filename)
		switch {
		case err == nil:
			quality = record.Quality
		case !errors.Is(err, metadata.ErrNotFound):
			return Job{}, err
		}
	}

	var ep episode.Episode
	var err error
	if slot.MsgID != "" {
		ep, err = feed.ParseReportTitle(slot.Filename)
	} else {
		ep, err = episode.Parse(slot.Filename)
	}
	if err != nil {
		return Job{}, err
	}
	ep.Quality = quality

	return Job{
		ID:        slot.NzoID,
		Title:     slot.Filename,
		Category:  slot.Category,
		ReportID:  slot.MsgID,
		Size:      int64(slot.MB * 1024 * 1024),
		Remaining: int64(slot.MBLeft * 1024 * 1024),
		Episode:   ep,
	}, nil
}

// Remove drops a job from the queue by its id.
func (q *SABnzbd) Remove(ctx context.Context, job Job) error {
	args := url.Values{
		"mode":  []string{"queue"},
		"name":  []string{"delete"},
		"value": []string{job.ID},
	}
	body, err := q.get(ctx, args)
	if err != nil {
		return fmt.Errorf("%w: removing %q: %v", ErrQueueDeletion, job.Title, err)
	}
	response := strings.TrimSpace(string(body))
	if response != "ok" {
		return fmt.Errorf("%w: %q: %s", ErrQueueDeletion, job.Title, response)
	}
	q.log.Info("job removed from queue", "title", job.Title)

	q.mu.Lock()
	q.fetched = false
	q.jobs = nil
	q.mu.Unlock()
	return nil
}

// Enqueue hands an item to SABnzbd: report-id items go through addid,
// everything else through addurl.
func (q *SABnzbd) Enqueue(ctx context.Context, item feed.Item) error {
	args := url.Values{
		"cat":      []string{q.category},
		"priority": []string{strconv.Itoa(item.Priority.Integer())},
	}
	if item.ReportID != "" {
		args.Set("mode", "addid")
		args.Set("name", item.ReportID)
	} else {
		args.Set("mode", "addurl")
		args.Set("name", item.URL)
	}

	body, err := q.get(ctx, args)
	if err != nil {
		return fmt.Errorf("%w: queueing %q: %v", ErrQueueInsertion, item.Title, err)
	}
	response := strings.TrimSpace(string(body))
	switch {
	case response == "ok":
		q.log.Info("item queued for download", "title", item.Title)
	case strings.HasPrefix(response, "error"):
		return fmt.Errorf("%w: %q rejected: %s", ErrQueueInsertion, item.Title, response)
	default:
		return fmt.Errorf("%w: unexpected response queueing %q: %s", ErrQueueInsertion, item.Title, response)
	}

	// Queue contents changed; force a refetch on the next Jobs call.
	q.mu.Lock()
	q.fetched = false
	q.jobs = nil
	q.mu.Unlock()
	return nil
}

// Processed reports whether the item's nzb already sits in SABnzbd's
// backup directory, meaning it went through the queue before.
func (q *SABnzbd) Processed(item feed.Item) bool {
	if q.backupDir == "" {
		return false
	}
	entries, err := os.ReadDir(q.backupDir)
	if err != nil {
		q.log.Warn("unable to read backup directory", "dir", q.backupDir, "error", err)
		return false
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), item.Title) {
			return true
		}
	}
	return false
}

func (q *SABnzbd) get(ctx context.Context, args url.Values) ([]byte, error) {
	if q.username != "" && q.password != "" {
		args.Set("ma_username", q.username)
		args.Set("ma_password", q.password)
	}
	if q.apiKey != "" {
		args.Set("apikey", q.apiKey)
	}

	endpoint := q.root + "/api?" + args.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueRetrieval, err)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueRetrieval, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", ErrQueueRetrieval, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueRetrieval, err)
	}
	return body, nil
}
