package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/salestrack-lab/salestrack/internal/cache"
	"github.com/salestrack-lab/salestrack/internal/core/analytics"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
)

const (
	defaultDailyLookbackDays  = 30
	defaultWeeklyLookbackDays = 90
	defaultYearlyLookbackDays = 365
	defaultDataRangeTTL       = 24 * time.Hour

	maxLookbackDays = 3650

	// predecessorSlack widens the snapshot query before a window start so the first
	// in-window snapshot still has an older neighbour to diff against.
	predecessorSlack = 24 * time.Hour
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid analytics query")

// Store is the read side of persistence used by the service.
type Store interface {
	storage.ItemStore
	storage.SnapshotStore
}

// Tracker restricts analytics to the currently configured catalog.
type Tracker interface {
	Filter(items []v1.Item) []v1.Item
}

// Options configures lookbacks and cache lifetimes.
type Options struct {
	DailyLookbackDays  int
	WeeklyLookbackDays int
	YearlyLookbackDays int
	DataRangeTTL       time.Duration
}

func (o Options) normalized() Options {
	n := o
	if n.DailyLookbackDays <= 0 {
		n.DailyLookbackDays = defaultDailyLookbackDays
	}
	if n.WeeklyLookbackDays <= 0 {
		n.WeeklyLookbackDays = defaultWeeklyLookbackDays
	}
	if n.YearlyLookbackDays <= 0 {
		n.YearlyLookbackDays = defaultYearlyLookbackDays
	}
	if n.DataRangeTTL <= 0 {
		n.DataRangeTTL = defaultDataRangeTTL
	}
	return n
}

func (o Options) lookbackFor(v View) int {
	switch v {
	case ViewDaily:
		return o.DailyLookbackDays
	case ViewYearly:
		return o.YearlyLookbackDays
	default:
		return o.WeeklyLookbackDays
	}
}

// Service implements the analytics read path.
// Results are cached until the next top of the hour and dropped early by InvalidateAnalytics.
type Service struct {
	store   Store
	engine  *analytics.Engine
	cache   *cache.Cache
	tracker Tracker
	opts    Options
	nowFn   func() time.Time
}

// NewService creates a projection service. A nil cache disables caching; a nil tracker serves every stored item.
func NewService(store Store, engine *analytics.Engine, c *cache.Cache, tracker Tracker, opts Options) *Service {
	if c == nil {
		c = cache.New(cache.Disabled())
	}
	return &Service{
		store:   store,
		engine:  engine,
		cache:   c,
		tracker: tracker,
		opts:    opts.normalized(),
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type resolvedQuery struct {
	Query
	granularity analytics.Granularity
}

func (s *Service) resolve(q Query) (resolvedQuery, error) {
	g, ok := q.View.Granularity()
	if !ok {
		return resolvedQuery{}, fmt.Errorf("%w: unknown view %q", ErrInvalidQuery, q.View)
	}
	if q.Offset < 0 {
		return resolvedQuery{}, fmt.Errorf("%w: offset must be >= 0, got %d", ErrInvalidQuery, q.Offset)
	}
	if q.View == ViewYearly {
		q.Offset = 0
	}
	if q.LookbackDays < 0 || q.LookbackDays > maxLookbackDays {
		return resolvedQuery{}, fmt.Errorf("%w: lookback must be between 0 (view default) and %d days, got %d", ErrInvalidQuery, maxLookbackDays, q.LookbackDays)
	}
	if q.LookbackDays == 0 {
		q.LookbackDays = s.opts.lookbackFor(q.View)
	}
	return resolvedQuery{Query: q, granularity: g}, nil
}

// window resolves the calendar window at one fixed instant and returns an engine pinned to it.
func (s *Service) window(q resolvedQuery) (*analytics.Engine, analytics.Window, time.Time, error) {
	now := s.nowFn()
	engine := s.engine.WithClock(func() time.Time { return now })
	w, err := engine.Window(q.granularity, q.Offset)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidWindow) {
			return nil, analytics.Window{}, now, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		return nil, analytics.Window{}, now, err
	}
	return engine, w, now, nil
}

// since is the earliest snapshot instant needed for the window and the growth lookback.
func since(w analytics.Window, now time.Time, lookbackDays int) time.Time {
	from := now.AddDate(0, 0, -lookbackDays)
	if w.Bounded() {
		if p := w.Start.Add(-predecessorSlack); p.Before(from) {
			from = p
		}
	}
	return from
}

// Analytics returns the reports of every tracked item for one view.
func (s *Service) Analytics(ctx context.Context, q Query) (*Report, error) {
	rq, err := s.resolve(q)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("analytics:%s:%d:%d", rq.View, rq.Offset, rq.LookbackDays)
	return cache.GetOrLoad(ctx, s.cache, key, cache.UntilNextHour(s.engine.Location()), []string{rq.View.cacheTag()},
		func(ctx context.Context) (*Report, error) {
			return s.buildReport(ctx, rq)
		})
}

func (s *Service) buildReport(ctx context.Context, q resolvedQuery) (*Report, error) {
	engine, w, now, err := s.window(q)
	if err != nil {
		return nil, err
	}

	items, err := s.trackedItems(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	var (
		series map[string][]v1.Snapshot
		latest map[string]v1.Snapshot
	)
	if len(ids) > 0 {
		series, err = s.store.ListSnapshotsBatch(ctx, ids, since(w, now, q.LookbackDays))
		if err != nil {
			return nil, fmt.Errorf("loading snapshots: %w", err)
		}
		latest, err = s.store.LatestSnapshots(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading latest snapshots: %w", err)
		}
	}

	hasOlder, err := s.hasOlderData(ctx, w)
	if err != nil {
		return nil, err
	}

	reports := make([]analytics.ItemReport, 0, len(items))
	for _, item := range items {
		var lp *v1.Snapshot
		if l, ok := latest[item.ID]; ok {
			lp = &l
		}
		r := engine.Report(item, series[item.ID], lp, w)
		r.HasOlderData = hasOlder
		reports = append(reports, r)
	}

	report := &Report{
		View:         q.View,
		Granularity:  q.granularity,
		Offset:       q.Offset,
		LookbackDays: q.LookbackDays,
		Timezone:     engine.Location().String(),
		HasOlderData: hasOlder,
		Items:        reports,
		Totals:       rollup(reports, engine.BreakdownFor(nil, w).Buckets),
		GeneratedAt:  now,
	}
	if p := w.Period(); p != nil {
		report.PeriodStart = &p.Start
		report.PeriodEnd = &p.End
	}

	slog.Debug("[Projection] Built analytics report",
		"view", q.View,
		"offset", q.Offset,
		"items", len(reports),
		"total", report.Totals.Total)
	return report, nil
}

// ItemAnalytics returns one item's report. Unknown items return storage.ErrNotFound.
func (s *Service) ItemAnalytics(ctx context.Context, itemID string, q Query) (*analytics.ItemReport, error) {
	rq, err := s.resolve(q)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("item:%s:%s:%d:%d", itemID, rq.View, rq.Offset, rq.LookbackDays)
	return cache.GetOrLoad(ctx, s.cache, key, cache.UntilNextHour(s.engine.Location()), []string{rq.View.cacheTag()},
		func(ctx context.Context) (*analytics.ItemReport, error) {
			return s.buildItemReport(ctx, itemID, rq)
		})
}

func (s *Service) buildItemReport(ctx context.Context, itemID string, q resolvedQuery) (*analytics.ItemReport, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", itemID, err)
	}

	engine, w, now, err := s.window(q)
	if err != nil {
		return nil, err
	}

	series, err := s.store.ListSnapshots(ctx, itemID, since(w, now, q.LookbackDays))
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	latest, err := s.store.LatestSnapshots(ctx, []string{itemID})
	if err != nil {
		return nil, fmt.Errorf("loading latest snapshot: %w", err)
	}
	hasOlder, err := s.hasOlderData(ctx, w)
	if err != nil {
		return nil, err
	}

	var lp *v1.Snapshot
	if l, ok := latest[itemID]; ok {
		lp = &l
	}
	report := engine.Report(*item, series, lp, w)
	report.HasOlderData = hasOlder
	return &report, nil
}

// Items lists the tracked items with their most recent snapshot.
func (s *Service) Items(ctx context.Context) ([]ItemSummary, error) {
	items, err := s.trackedItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []ItemSummary{}, nil
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	latest, err := s.store.LatestSnapshots(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading latest snapshots: %w", err)
	}

	out := make([]ItemSummary, len(items))
	for i, item := range items {
		out[i] = ItemSummary{Item: item}
		if l, ok := latest[item.ID]; ok {
			sales := l.SalesCount
			scanned := l.ScannedAt.UTC()
			out[i].LatestSales = &sales
			out[i].LatestPrice = l.Price
			out[i].LastScanned = &scanned
		}
	}
	return out, nil
}

// DataRange returns the oldest or newest snapshot instant. kind is "oldest" or "newest".
func (s *Service) DataRange(ctx context.Context, kind string) (*DataRange, error) {
	var load func(context.Context) (*time.Time, error)
	switch kind {
	case "oldest":
		load = s.store.OldestSnapshotTime
	case "newest":
		load = s.store.NewestSnapshotTime
	default:
		return nil, fmt.Errorf("%w: type must be oldest or newest, got %q", ErrInvalidQuery, kind)
	}

	return cache.GetOrLoad(ctx, s.cache, "data-range:"+kind, cache.For(s.opts.DataRangeTTL), []string{tagDataRange},
		func(ctx context.Context) (*DataRange, error) {
			ts, err := load(ctx)
			if err != nil {
				return nil, fmt.Errorf("loading %s snapshot time: %w", kind, err)
			}
			return &DataRange{Type: kind, Timestamp: ts}, nil
		})
}

// InvalidateAnalytics drops every cached analytics result. Called after each completed scan.
func (s *Service) InvalidateAnalytics() {
	removed := s.cache.Invalidate(
		ViewDaily.cacheTag(),
		ViewWeekly.cacheTag(),
		ViewMonthly.cacheTag(),
		ViewYearly.cacheTag(),
		tagDataRange,
	)
	slog.Info("[Projection] Analytics cache invalidated", "entries", removed)
}

func (s *Service) trackedItems(ctx context.Context) ([]v1.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	if s.tracker != nil {
		items = s.tracker.Filter(items)
	}
	return items, nil
}

// hasOlderData reports whether any snapshot predates the window, i.e. a previous period has data.
func (s *Service) hasOlderData(ctx context.Context, w analytics.Window) (bool, error) {
	if !w.Bounded() {
		return false, nil
	}
	oldest, err := s.store.OldestSnapshotTime(ctx)
	if err != nil {
		return false, fmt.Errorf("loading oldest snapshot time: %w", err)
	}
	return oldest != nil && oldest.Before(w.Start), nil
}
