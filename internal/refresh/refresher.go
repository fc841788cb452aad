// Package refresh periodically overwrites the value of real-time tracked
// assets with the latest market price.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"wealthsync/internal/logger"
	"wealthsync/internal/models"
	"wealthsync/internal/pricing"
)

// ErrCycleInProgress is returned when a cycle is requested while another is running.
var ErrCycleInProgress = errors.New("refresh cycle already in progress")

const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// AssetStore is the persistence surface the refresher needs.
type AssetStore interface {
	// ListRealTimeTracked returns a snapshot of all tracked assets.
	ListRealTimeTracked(ctx context.Context) ([]models.Asset, error)
	// SaveRefreshedPrice persists Value and LastUpdated. It reports false
	// when the asset no longer exists or is no longer tracked.
	SaveRefreshedPrice(ctx context.Context, asset *models.Asset) (bool, error)
}

// ProviderLookup resolves the price provider for an asset kind.
type ProviderLookup interface {
	For(kind models.AssetKind) (pricing.Provider, bool)
}

const (
	defaultInterval     = 2 * time.Hour
	defaultFetchTimeout = 10 * time.Second
)

// Options configures a Refresher. Zero Interval and FetchTimeout select the
// defaults (2h and 10s).
type Options struct {
	Interval     time.Duration
	InitialDelay time.Duration
	FetchTimeout time.Duration
}

// Refresher runs price refresh cycles. At most one cycle runs at a time,
// whether started by the scheduler or on demand.
type Refresher struct {
	store     AssetStore
	providers ProviderLookup
	opts      Options
	now       func() time.Time
	log       *zap.SugaredLogger

	running atomic.Bool
	async   sync.WaitGroup

	mu   sync.RWMutex
	last *CycleReport
}

// New creates a Refresher.
func New(store AssetStore, providers ProviderLookup, opts Options) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Refresher{
		store:     store,
		providers: providers,
		opts:      opts,
		now:       time.Now,
		log:       logger.Named("refresh"),
	}
}

// Start waits for the initial delay, runs a cycle, then runs one per interval
// until ctx is cancelled. A tick that arrives while a cycle is still running
// is skipped.
func (r *Refresher) Start(ctx context.Context) {
	r.log.Infow("price refresher started",
		"interval", r.opts.Interval.String(),
		"initial_delay", r.opts.InitialDelay.String(),
	)

	delay := time.NewTimer(r.opts.InitialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		r.log.Info("price refresher stopped before first cycle")
		return
	case <-delay.C:
	}

	r.tick(ctx)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("price refresher stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	if _, err := r.RunCycle(ctx, TriggerScheduled); errors.Is(err, ErrCycleInProgress) {
		r.log.Warn("previous refresh cycle still running, skipping tick")
	}
}

// RunCycle runs one cycle synchronously and returns its report.
func (r *Refresher) RunCycle(ctx context.Context, trigger string) (*CycleReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer r.running.Store(false)
	return r.cycle(ctx, trigger), nil
}

// TriggerAsync starts a cycle in the background. It returns
// ErrCycleInProgress without starting anything if a cycle is running.
func (r *Refresher) TriggerAsync(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	r.async.Add(1)
	go func() {
		defer r.async.Done()
		defer r.running.Store(false)
		r.cycle(ctx, TriggerManual)
	}()
	return nil
}

// Wait blocks until every cycle started by TriggerAsync has finished.
func (r *Refresher) Wait() {
	r.async.Wait()
}

// Running reports whether a cycle is currently executing.
func (r *Refresher) Running() bool {
	return r.running.Load()
}

// LastReport returns the report of the most recently finished cycle, or nil.
func (r *Refresher) LastReport() *CycleReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// cycle must only be called while holding the running flag.
func (r *Refresher) cycle(ctx context.Context, trigger string) *CycleReport {
	report := &CycleReport{Trigger: trigger, StartedAt: r.now(), Results: []AssetResult{}}
	today := models.DateOf(report.StartedAt)
	processed := make(map[string]struct{})

	assets, err := r.store.ListRealTimeTracked(ctx)
	if err != nil {
		r.log.Errorw("failed to list tracked assets", "trigger", trigger, "error", err)
		report.Error = err.Error()
	}

	for i := range assets {
		if ctx.Err() != nil {
			r.log.Warnw("refresh cycle cancelled", "remaining", len(assets)-i)
			break
		}
		asset := assets[i]
		if _, done := processed[asset.ID]; done {
			r.log.Debugw("asset already processed this cycle", "asset_id", asset.ID)
			continue
		}
		processed[asset.ID] = struct{}{}
		res := r.refreshAsset(ctx, &asset, today)
		if res.Outcome != OutcomeSkipped {
			report.Attempted++
		}
		report.add(res)
	}

	report.FinishedAt = r.now()
	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	r.log.Infow("refresh cycle finished",
		"trigger", trigger,
		"attempted", report.Attempted,
		"updated", report.Updated,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", report.Duration().String(),
	)
	return report
}

// refreshAsset fetches and stores a new price for one asset. Any failure,
// including a panic, leaves the stored asset untouched.
func (r *Refresher) refreshAsset(ctx context.Context, asset *models.Asset, today time.Time) (res AssetResult) {
	res = AssetResult{AssetID: asset.ID, Symbol: asset.Symbol, Kind: string(asset.Kind)}

	defer func() {
		if p := recover(); p != nil {
			r.log.Errorw("panic while refreshing asset", "asset_id", asset.ID, "panic", p)
			res.Outcome = OutcomeFailed
			res.Price = nil
			res.Error = fmt.Sprintf("panic: %v", p)
		}
	}()

	if !asset.IsRealTimeTracked {
		return skipped(res, "asset is not real-time tracked")
	}
	if strings.TrimSpace(asset.Symbol) == "" {
		r.log.Warnw("tracked asset has no symbol", "asset_id", asset.ID)
		return skipped(res, "missing symbol")
	}
	provider, ok := r.providers.For(asset.Kind)
	if !ok {
		r.log.Warnw("no price provider for asset kind", "asset_id", asset.ID, "kind", asset.Kind)
		return skipped(res, "unsupported asset kind")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	result := provider.FetchPrice(fetchCtx, asset.Symbol)
	cancel()

	if result.Err != nil {
		r.log.Warnw("price fetch failed", "asset_id", asset.ID, "symbol", asset.Symbol, "provider", provider.Name(), "error", result.Err)
		return failed(res, result.Err.Error())
	}
	if !result.Price.IsPositive() {
		r.log.Warnw("ignoring non-positive price", "asset_id", asset.ID, "symbol", asset.Symbol, "price", result.Price.String())
		return failed(res, "non-positive price "+result.Price.String())
	}

	updated := *asset
	updated.Value = result.Price
	updated.LastUpdated = &today

	saved, err := r.store.SaveRefreshedPrice(ctx, &updated)
	if err != nil {
		r.log.Errorw("failed to save refreshed price", "asset_id", asset.ID, "error", err)
		return failed(res, "store: "+err.Error())
	}
	if !saved {
		r.log.Infow("asset no longer tracked, price discarded", "asset_id", asset.ID)
		return skipped(res, "asset removed or untracked during cycle")
	}

	*asset = updated
	price := result.Price
	res.Outcome = OutcomeUpdated
	res.Price = &price
	r.log.Debugw("asset price refreshed", "asset_id", asset.ID, "symbol", asset.Symbol, "price", price.String())
	return res
}

func skipped(res AssetResult, reason string) AssetResult {
	res.Outcome = OutcomeSkipped
	res.Error = reason
	return res
}

func failed(res AssetResult, reason string) AssetResult {
	res.Outcome = OutcomeFailed
	res.Error = reason
	return res
}
