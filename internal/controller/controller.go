// Package controller owns the view state machine: which region is on the
// map, which year is displayed, how prices are scaled, and whether the
// year animation is running. It caches fetched geometry so that year and
// scale-mode changes restyle in place without refetching, and it guards
// against stale fetch results committing over a newer selection.
package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/dataset"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/geometry"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/logger"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/registry"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/scale"
)

// Phase is the lifecycle of the region layer.
type Phase int

const (
	// PhaseIdle: no geometry cached, nothing on the map.
	PhaseIdle Phase = iota
	// PhaseLoading: a geometry fetch is in flight.
	PhaseLoading
	// PhaseRendered: geometry is cached and styled on the map.
	PhaseRendered
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRendered:
		return "rendered"
	default:
		return "idle"
	}
}

const (
	// DefaultFrameInterval is the year-animation step cadence.
	DefaultFrameInterval = 800 * time.Millisecond

	// DefaultHighlightDuration is how long a searched ZIP stays
	// highlighted before its style auto-reverts.
	DefaultHighlightDuration = 3 * time.Second

	// DefaultHighlightColor is the outline color for a searched ZIP.
	DefaultHighlightColor = "#00ffff"
)

// UpdateSink receives every view update the controller produces: region
// renders, year restyles, animation frames, highlights and their reverts.
// Publish must not call back into the controller.
type UpdateSink interface {
	Publish(update models.ViewUpdate)
}

// SinkFunc adapts a function to the UpdateSink interface.
type SinkFunc func(update models.ViewUpdate)

func (f SinkFunc) Publish(update models.ViewUpdate) { f(update) }

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Sink              UpdateSink
	Palette           scale.Palette
	FrameInterval     time.Duration
	HighlightDuration time.Duration
	HighlightColor    string
	StartYear         int
	StartScaleMode    models.ScaleMode
}

// Controller drives the choropleth view. All exported methods are safe for
// concurrent use.
type Controller struct {
	ds      *dataset.Dataset
	reg     *registry.Registry
	fetcher geometry.Fetcher

	sink           UpdateSink
	palette        scale.Palette
	frameInterval  time.Duration
	highlightTTL   time.Duration
	highlightColor string

	mu          sync.Mutex
	phase       Phase
	state       models.ViewState
	geo         *geometry.Set
	regionRange models.PriceRange

	fetchToken     uuid.UUID
	stopAnim       context.CancelFunc
	highlightToken uuid.UUID
	highlightTimer *time.Timer
}

// New builds a Controller over a loaded dataset, a region registry and a
// geometry fetcher.
func New(ds *dataset.Dataset, reg *registry.Registry, fetcher geometry.Fetcher, opts Options) *Controller {
	if opts.Palette == nil {
		opts.Palette = scale.DefaultPalette
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.HighlightDuration <= 0 {
		opts.HighlightDuration = DefaultHighlightDuration
	}
	if opts.HighlightColor == "" {
		opts.HighlightColor = DefaultHighlightColor
	}
	if opts.StartYear == 0 {
		opts.StartYear = models.MaxYear
	}
	if opts.StartScaleMode == "" {
		opts.StartScaleMode = models.ScaleRegion
	}
	return &Controller{
		ds:             ds,
		reg:            reg,
		fetcher:        fetcher,
		sink:           opts.Sink,
		palette:        opts.Palette,
		frameInterval:  opts.FrameInterval,
		highlightTTL:   opts.HighlightDuration,
		highlightColor: opts.HighlightColor,
		phase:          PhaseIdle,
		state: models.ViewState{
			Year:      clampYear(opts.StartYear),
			ScaleMode: opts.StartScaleMode,
		},
	}
}

// Phase reports the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns a copy of the current view state.
func (c *Controller) State() models.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelectRegion fetches the boundary set for the given region, styles it for
// the current year and scale mode, and publishes the result. The year is
// preserved across the region change. If a newer SelectRegion call is made
// while the fetch is in flight, this call returns ErrSuperseded and leaves
// state to the newer call. On fetch failure the previously rendered region,
// if any, stays on the map untouched.
func (c *Controller) SelectRegion(ctx context.Context, id string) (*models.ViewUpdate, error) {
	region, ok := c.reg.Region(id)
	if !ok {
		return nil, fmt.Errorf("unknown region %q", id)
	}

	c.mu.Lock()
	c.cancelAnimationLocked()
	c.cancelHighlightLocked()
	token := uuid.New()
	c.fetchToken = token
	c.phase = PhaseLoading
	c.mu.Unlock()

	logger.Debug("fetching boundaries for %s", region.ID)
	set, err := c.fetcher.Fetch(ctx, region)

	c.mu.Lock()
	if c.fetchToken != token {
		c.mu.Unlock()
		logger.Debug("discarding stale boundaries for %s", region.ID)
		return nil, ErrSuperseded
	}
	if err != nil {
		// Keep whatever was rendered before. The failed fetch never
		// touched the cached geometry.
		if c.geo != nil {
			c.phase = PhaseRendered
		} else {
			c.phase = PhaseIdle
		}
		c.mu.Unlock()
		return nil, err
	}
	c.geo = set
	c.state.RegionID = region.ID
	c.phase = PhaseRendered
	update := c.restyleLocked(set.Bounds(), nil)
	c.mu.Unlock()

	logger.Info("rendered %s: %d features, year %d", region.ID, len(set.Features), update.State.Year)
	c.publish(update)
	return update, nil
}

// ChangeYear restyles the rendered region for a new year. Out-of-range
// years are clamped to [2000, 2025]. The cached geometry is reused; no
// fetch happens. Returns ErrNotRendered if no region is on the map.
func (c *Controller) ChangeYear(year int) (*models.ViewUpdate, error) {
	c.mu.Lock()
	if c.phase != PhaseRendered {
		c.mu.Unlock()
		return nil, ErrNotRendered
	}
	c.state.Year = clampYear(year)
	update := c.restyleLocked(nil, nil)
	c.mu.Unlock()

	c.publish(update)
	return update, nil
}

// SetScaleMode switches between region-relative and national color scaling
// and restyles in place.
func (c *Controller) SetScaleMode(mode models.ScaleMode) (*models.ViewUpdate, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown scale mode %q", mode)
	}
	c.mu.Lock()
	if c.phase != PhaseRendered {
		c.mu.Unlock()
		return nil, ErrNotRendered
	}
	c.state.ScaleMode = mode
	update := c.restyleLocked(nil, nil)
	c.mu.Unlock()

	c.publish(update)
	return update, nil
}

// Play starts the year animation: one year per frame interval, stopping
// automatically at 2025. Starting while already at 2025 rewinds to 2000
// first. Playing while already playing is a no-op.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.phase != PhaseRendered {
		c.mu.Unlock()
		return ErrNotRendered
	}
	if c.state.Playing {
		c.mu.Unlock()
		return nil
	}
	var rewind *models.ViewUpdate
	if c.state.Year >= models.MaxYear {
		c.state.Year = models.MinYear
		rewind = c.restyleLocked(nil, nil)
	}
	c.state.Playing = true
	ctx, cancel := context.WithCancel(context.Background())
	c.stopAnim = cancel
	interval := c.frameInterval
	c.mu.Unlock()

	c.publish(rewind)
	go c.animate(ctx, interval)
	return nil
}

// Pause stops the year animation, if running.
func (c *Controller) Pause() {
	c.mu.Lock()
	c.cancelAnimationLocked()
	c.mu.Unlock()
}

func (c *Controller) animate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update, done := c.step()
			c.publish(update)
			if done {
				return
			}
		}
	}
}

// step advances the animation by one year. It rechecks Playing under the
// lock so a Pause or SelectRegion racing with a ticker fire wins cleanly.
func (c *Controller) step() (*models.ViewUpdate, bool) {
	c.mu.Lock()
	if c.phase != PhaseRendered || !c.state.Playing {
		c.mu.Unlock()
		return nil, true
	}
	c.state.Year++
	if c.state.Year >= models.MaxYear {
		c.state.Year = models.MaxYear
		c.cancelAnimationLocked()
	}
	update := c.restyleLocked(nil, nil)
	done := !c.state.Playing
	c.mu.Unlock()
	return update, done
}

// SearchZip locates a ZIP: malformed input returns a *ValidationError, a
// ZIP outside the lookup table or the resolved region's boundaries returns
// a *LookupMissError, and in both cases the map is left unchanged. A hit in
// another region selects that region first. The matched feature is
// highlighted and zoomed to, and the highlight auto-reverts after the
// configured duration.
func (c *Controller) SearchZip(ctx context.Context, zip string) (*models.ViewUpdate, error) {
	zip = strings.TrimSpace(zip)
	if !models.ValidZip(zip) {
		padded := models.PadZip(zip)
		if !models.ValidZip(padded) {
			return nil, &ValidationError{Input: zip, Reason: "must be a 5-digit ZIP code"}
		}
		zip = padded
	}

	regionID, ok := c.reg.RegionForZip(zip)
	if !ok {
		return nil, &LookupMissError{Zip: zip, Kind: LookupMissDatabase}
	}

	c.mu.Lock()
	sameRegion := c.phase == PhaseRendered && c.state.RegionID == regionID
	c.mu.Unlock()
	if !sameRegion {
		if _, err := c.SelectRegion(ctx, regionID); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	if c.phase != PhaseRendered || c.state.RegionID != regionID {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	feature, ok := c.geo.FeatureFor(zip)
	if !ok {
		c.mu.Unlock()
		return nil, &LookupMissError{Zip: zip, Kind: LookupMissBoundaries, Region: regionID}
	}
	c.cancelHighlightLocked()
	highlight := &models.Highlight{Zip: zip, Color: c.highlightColor}
	update := c.restyleLocked(feature.Bounds(), highlight)
	token := uuid.New()
	c.highlightToken = token
	c.highlightTimer = time.AfterFunc(c.highlightTTL, func() {
		c.revertHighlight(token)
	})
	c.mu.Unlock()

	logger.Info("ZIP %s found in %s", zip, regionID)
	c.publish(update)
	return update, nil
}

func (c *Controller) revertHighlight(token uuid.UUID) {
	c.mu.Lock()
	if c.highlightToken != token || c.phase != PhaseRendered {
		c.mu.Unlock()
		return
	}
	c.highlightTimer = nil
	c.highlightToken = uuid.Nil
	update := c.restyleLocked(nil, nil)
	c.mu.Unlock()
	c.publish(update)
}

// restyleLocked recomputes the active price range for the current year and
// scale mode and rebuilds the per-ZIP fill colors from the cached geometry.
// Caller holds c.mu.
func (c *Controller) restyleLocked(bounds *models.Bounds, highlight *models.Highlight) *models.ViewUpdate {
	zips := c.geo.Zips()
	seen := make(map[string]bool, len(zips))
	prices := make([]float64, 0, len(zips))
	for _, z := range zips {
		if seen[z] {
			continue
		}
		seen[z] = true
		if p, ok := c.ds.PriceOf(z, c.state.Year); ok {
			prices = append(prices, p)
		}
	}
	c.regionRange = scale.ComputeRange(prices)

	active := c.regionRange
	if c.state.ScaleMode == models.ScaleNational {
		active = c.ds.NationalRange(c.state.Year)
	}

	styles := make(map[string]string, len(seen))
	for z := range seen {
		price, ok := c.ds.PriceOf(z, c.state.Year)
		if !ok {
			styles[z] = scale.NoDataColor
			continue
		}
		styles[z] = c.palette.ColorFor(price, active)
	}

	return &models.ViewUpdate{
		State:     c.state,
		Range:     active,
		Styles:    styles,
		Bounds:    bounds,
		Highlight: highlight,
	}
}

func (c *Controller) cancelAnimationLocked() {
	if c.stopAnim != nil {
		c.stopAnim()
		c.stopAnim = nil
	}
	c.state.Playing = false
}

func (c *Controller) cancelHighlightLocked() {
	if c.highlightTimer != nil {
		c.highlightTimer.Stop()
		c.highlightTimer = nil
	}
	c.highlightToken = uuid.Nil
}

func (c *Controller) publish(update *models.ViewUpdate) {
	if c.sink == nil || update == nil {
		return
	}
	c.sink.Publish(*update)
}

func clampYear(year int) int {
	if year < models.MinYear {
		return models.MinYear
	}
	if year > models.MaxYear {
		return models.MaxYear
	}
	return year
}
