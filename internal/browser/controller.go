// Package browser owns the query state of the survey record browser: page,
// page size, and committed search term. Every committed change issues one
// fetch; completions are applied in sequence order so a slow, superseded
// response never overwrites a newer one.
package browser

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/surveyops/surveyctl/internal/api"
	"github.com/surveyops/surveyctl/internal/constants"
	"github.com/surveyops/surveyctl/internal/events"
	"github.com/surveyops/surveyctl/internal/logging"
	"github.com/surveyops/surveyctl/internal/models"
	"github.com/surveyops/surveyctl/internal/notify"
	"github.com/surveyops/surveyctl/internal/pagination"
)

// Toast texts shown by the controller.
const (
	MsgLoadFailed = "Failed to load survey data"
	MsgRefreshed  = "Data refreshed"
)

// Source lists survey records. *api.Client implements it.
type Source interface {
	ListRecords(ctx context.Context, page, limit int, search string) (models.ListResult, error)
}

// EventChanged is published whenever the snapshot changes: a committed
// mutation (Loading becomes true), an applied result, or an applied failure.
const EventChanged events.EventType = "browser.changed"

// ChangedEvent carries the snapshot after the change. Err is set when the
// change was an applied fetch failure.
type ChangedEvent struct {
	events.BaseEvent
	Snapshot Snapshot
	Err      error
}

// Snapshot is a copy of the controller's visible state.
type Snapshot struct {
	Records    []models.SurveyRecord
	Total      int
	Page       int
	TotalPages int
	PageSize   int
	Search     string
	Loading    bool
	Err        error // last applied failure, cleared by the next applied success
}

// Range returns the 1-based indices of the first and last record on the page.
func (s Snapshot) Range() (from, to int) {
	return pagination.Range(s.Page, s.PageSize, s.Total)
}

// HasPrev reports whether a previous page exists.
func (s Snapshot) HasPrev() bool { return s.Page > 1 }

// HasNext reports whether a next page exists.
func (s Snapshot) HasNext() bool { return s.Page < s.TotalPages }

// Options configures a Controller. Zero values select defaults.
type Options struct {
	PageSize   int
	WindowSize int
	Bus        *events.EventBus
	Notices    *notify.Center
	Logger     *logging.Logger
}

// Controller is the query controller. All methods are safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	src        Source
	page       int
	pageSize   int
	search     string
	windowSize int

	records []models.SurveyRecord
	total   int
	lastErr error

	seq        atomic.Uint64 // last issued sequence number
	completed  uint64        // highest sequence number completed, success or failure
	refreshSeq uint64
	started    bool
	stopped    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	bus     *events.EventBus
	notices *notify.Center
	logger  *logging.Logger
}

// NewController creates a controller on page 1 with an empty search. No
// fetch is issued until Start.
func NewController(src Source, opts Options) *Controller {
	pageSize := opts.PageSize
	if !constants.IsAllowedPageSize(pageSize) {
		pageSize = constants.DefaultPageSize
	}
	windowSize := opts.WindowSize
	if windowSize < 1 {
		windowSize = constants.DefaultWindowSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		src:        src,
		page:       constants.FirstPage,
		pageSize:   pageSize,
		windowSize: windowSize,
		records:    []models.SurveyRecord{},
		ctx:        ctx,
		cancel:     cancel,
		bus:        opts.Bus,
		notices:    opts.Notices,
		logger:     logger.Component("browser"),
	}
}

// Start issues the initial fetch. Later calls do nothing.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.fetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap, nil)
}

// Stop cancels in-flight fetches and waits for them to return. Results
// arriving after Stop are discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// SetPage moves to page n. Out-of-range pages are rejected with a
// *ValidationError; the current page is a no-op. Neither fetches.
func (c *Controller) SetPage(n int) error {
	c.mu.Lock()
	tp := pagination.TotalPages(c.total, c.pageSize)
	if n < 1 || n > tp {
		c.mu.Unlock()
		return pageRangeError(tp)
	}
	if n == c.page {
		c.mu.Unlock()
		return nil
	}
	c.page = n
	c.fetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap, nil)
	return nil
}

// NextPage and PrevPage step by one, ignoring the edges.
func (c *Controller) NextPage() error { return c.step(1) }

// PrevPage steps back one page.
func (c *Controller) PrevPage() error { return c.step(-1) }

func (c *Controller) step(delta int) error {
	c.mu.Lock()
	target := c.page + delta
	c.mu.Unlock()
	return c.SetPage(target)
}

// SetPageSize changes the page size and resets to page 1. Sizes outside
// constants.AllowedPageSizes are rejected without changing state. An
// accepted size always fetches, even if it equals the current one.
func (c *Controller) SetPageSize(n int) error {
	if !constants.IsAllowedPageSize(n) {
		return validationf("page size must be one of 5, 10, 25, 50, 100")
	}

	c.mu.Lock()
	c.pageSize = n
	c.page = constants.FirstPage
	c.fetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap, nil)
	return nil
}

// SetSearch commits a search term and resets to page 1.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.page = constants.FirstPage
	c.fetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap, nil)
}

// Refresh re-issues the fetch for the current query without changing it.
// A successful refresh raises a "Data refreshed" toast.
func (c *Controller) Refresh() {
	c.mu.Lock()
	c.refreshSeq = c.fetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap, nil)
}

// JumpTo parses typed page input and moves there.
func (c *Controller) JumpTo(input string) error {
	c.mu.Lock()
	tp := pagination.TotalPages(c.total, c.pageSize)
	c.mu.Unlock()

	n, err := ParsePageJump(input, tp)
	if err != nil {
		return err
	}
	return c.SetPage(n)
}

// Snapshot returns a copy of the visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Window returns the page-navigation markers for the current state.
func (c *Controller) Window() []pagination.Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pagination.Window(c.page, pagination.TotalPages(c.total, c.pageSize), c.windowSize)
}

func (c *Controller) snapshotLocked() Snapshot {
	records := make([]models.SurveyRecord, len(c.records))
	copy(records, c.records)
	return Snapshot{
		Records:    records,
		Total:      c.total,
		Page:       c.page,
		TotalPages: pagination.TotalPages(c.total, c.pageSize),
		PageSize:   c.pageSize,
		Search:     c.search,
		Loading:    c.seq.Load() > c.completed,
		Err:        c.lastErr,
	}
}

type query struct {
	page, size int
	search     string
}

// fetchLocked issues one fetch for the committed query and returns its
// sequence number. Caller must hold c.mu.
func (c *Controller) fetchLocked() uint64 {
	if c.stopped {
		return c.seq.Load()
	}
	seq := c.seq.Add(1)
	q := query{page: c.page, size: c.pageSize, search: c.search}
	ctx := c.ctx

	c.logger.Debug().Uint64("seq", seq).Int("page", q.page).Int("size", q.size).Str("search", q.search).Msg("Fetching records")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.src.ListRecords(ctx, q.page, q.size, q.search)
		c.complete(seq, q, res, err)
	}()
	return seq
}

func (c *Controller) complete(seq uint64, q query, res models.ListResult, err error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if seq <= c.completed {
		c.mu.Unlock()
		c.logger.Debug().Uint64("seq", seq).Err(err).Msg("Discarding stale response")
		return
	}
	c.completed = seq

	if err != nil {
		c.lastErr = err
		c.clampLocked(seq, q, false)
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.logger.Warn().Err(err).Uint64("seq", seq).Msg("Failed to load records")
		c.publish(snap, err)
		c.bus.PublishError("browser", "list records", err, api.IsRetryable(err))
		if c.notices != nil {
			c.notices.Error("", MsgLoadFailed)
		}
		return
	}

	c.records = res.Records
	if c.records == nil {
		c.records = []models.SurveyRecord{}
	}
	c.total = res.Total
	c.lastErr = nil
	refreshed := seq == c.refreshSeq

	c.clampLocked(seq, q, true)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap, nil)
	if refreshed && c.notices != nil {
		c.notices.Info("", MsgRefreshed)
	}
}

// clampLocked keeps the committed page within the applied total after any
// completion. A fetch for the corrected page is issued only after a success
// that is the latest issued and was for a different page; while a newer fetch
// is outstanding its own completion comes back here. Failures never fetch.
// Caller must hold c.mu.
func (c *Controller) clampLocked(seq uint64, applied query, succeeded bool) {
	if tp := pagination.TotalPages(c.total, c.pageSize); tp > 0 && c.page > tp {
		c.logger.Debug().Int("page", c.page).Int("total_pages", tp).Msg("Page past the end; clamping")
		c.page = tp
	}
	if succeeded && seq == c.seq.Load() && applied.page != c.page {
		c.fetchLocked()
	}
}

func (c *Controller) publish(snap Snapshot, err error) {
	c.bus.Publish(&ChangedEvent{BaseEvent: events.NewBase(EventChanged), Snapshot: snap, Err: err})
}
