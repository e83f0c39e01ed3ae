package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/dataset"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/geometry"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/registry"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/scale"
)

// Prices chosen so the WI 2025 range is easy to check by hand: three ZIPs
// with 270000, 310000 and 320000. With a 3-sample set the 5th percentile
// index is int(3*0.05) = 0 and the 95th is int(3*0.95) = 2, so the trimmed
// range is [270000, 320000].
const testPrices = `Zip_Code,2000,2020,2025
54301,150000,300000,320000
54302,,280000,310000
54303,120000,250000,270000
90001,200000,650000,700000
75001,100000,350000,380000
`

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	sets    map[string]*geometry.Set
	errs    map[string]error
	release map[string]chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, region models.Region) (*geometry.Set, error) {
	f.mu.Lock()
	f.calls[region.ID]++
	gate := f.release[region.ID]
	set := f.sets[region.ID]
	err := f.errs[region.ID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, &geometry.FetchError{Region: region.ID, Err: err}
	}
	return set, nil
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func boundarySet(region string, zips ...string) *geometry.Set {
	set := &geometry.Set{Region: region}
	for i, zip := range zips {
		min := orb.Point{-90 + float64(i), 43}
		set.Features = append(set.Features, geometry.Feature{
			Zip:   zip,
			Bound: orb.Bound{Min: min, Max: orb.Point{min[0] + 0.5, 43.5}},
		})
	}
	return set
}

func testController(t *testing.T, opts Options) (*Controller, *fakeFetcher, chan models.ViewUpdate) {
	t.Helper()

	ds, err := dataset.LoadReader(strings.NewReader(testPrices), "test.csv")
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	reg := registry.New(
		[]models.Region{
			{ID: "WI", Name: "Wisconsin", GeometryFile: "wi.geojson"},
			{ID: "CA", Name: "California", GeometryFile: "ca.geojson"},
			{ID: "TX", Name: "Texas", GeometryFile: "tx.geojson"},
		},
		map[string]string{
			"54301": "WI",
			"54302": "WI",
			"54303": "WI",
			"54399": "WI", // in the lookup table but absent from the boundary set
			"90001": "CA",
			"75001": "TX",
		},
	)

	fetcher := &fakeFetcher{
		calls: make(map[string]int),
		sets: map[string]*geometry.Set{
			"WI": boundarySet("WI", "54301", "54302", "54303"),
			"CA": boundarySet("CA", "90001"),
			"TX": boundarySet("TX", "75001"),
		},
		errs:    make(map[string]error),
		release: make(map[string]chan struct{}),
	}

	updates := make(chan models.ViewUpdate, 256)
	opts.Sink = SinkFunc(func(u models.ViewUpdate) { updates <- u })
	return New(ds, reg, fetcher, opts), fetcher, updates
}

func drain(updates chan models.ViewUpdate) {
	for {
		select {
		case <-updates:
		default:
			return
		}
	}
}

func TestSelectRegion_RendersAndStyles(t *testing.T) {
	ctrl, fetcher, _ := testController(t, Options{})

	update, err := ctrl.SelectRegion(context.Background(), "wi")
	if err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}
	if got := ctrl.Phase(); got != PhaseRendered {
		t.Fatalf("phase = %v, want rendered", got)
	}
	if update.State.RegionID != "WI" {
		t.Errorf("RegionID = %q, want WI", update.State.RegionID)
	}
	if update.State.Year != models.MaxYear {
		t.Errorf("Year = %d, want %d", update.State.Year, models.MaxYear)
	}
	if fetcher.callCount("WI") != 1 {
		t.Errorf("fetch count = %d, want 1", fetcher.callCount("WI"))
	}
	if update.Bounds == nil {
		t.Error("expected bounds for view fitting")
	}

	// Range [270000, 320000], 8 buckets of 6250 in normalized terms:
	// 270000 lands in bucket 0, 310000 in bucket int(0.8*8) = 6, and
	// 320000 at the top clamps to bucket 7.
	if update.Range.LowerBound != 270000 || update.Range.UpperBound != 320000 {
		t.Fatalf("range = [%v, %v], want [270000, 320000]",
			update.Range.LowerBound, update.Range.UpperBound)
	}
	wantStyles := map[string]string{
		"54303": scale.DefaultPalette[0],
		"54302": scale.DefaultPalette[6],
		"54301": scale.DefaultPalette[7],
	}
	for zip, want := range wantStyles {
		if got := update.Styles[zip]; got != want {
			t.Errorf("style[%s] = %q, want %q", zip, got, want)
		}
	}
}

func TestSelectRegion_UnknownRegion(t *testing.T) {
	ctrl, _, _ := testController(t, Options{})
	if _, err := ctrl.SelectRegion(context.Background(), "ZZ"); err == nil {
		t.Fatal("expected error for unknown region")
	}
	if got := ctrl.Phase(); got != PhaseIdle {
		t.Errorf("phase = %v, want idle", got)
	}
}

func TestChangeYear_ReusesCachedGeometry(t *testing.T) {
	ctrl, fetcher, _ := testController(t, Options{})

	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}
	if _, err := ctrl.ChangeYear(2020); err != nil {
		t.Fatalf("ChangeYear(2020) failed: %v", err)
	}
	update, err := ctrl.ChangeYear(2000)
	if err != nil {
		t.Fatalf("ChangeYear(2000) failed: %v", err)
	}

	if fetcher.callCount("WI") != 1 {
		t.Errorf("fetch count after two year changes = %d, want 1", fetcher.callCount("WI"))
	}
	if update.State.Year != 2000 {
		t.Errorf("Year = %d, want 2000", update.State.Year)
	}
	// 54302 has no 2000 price in the dataset.
	if got := update.Styles["54302"]; got != scale.NoDataColor {
		t.Errorf("style for ZIP without data = %q, want %q", got, scale.NoDataColor)
	}
}

func TestChangeYear_ClampsToRange(t *testing.T) {
	ctrl, _, _ := testController(t, Options{})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}

	tests := []struct {
		in   int
		want int
	}{
		{1990, models.MinYear},
		{2030, models.MaxYear},
		{2013, 2013},
	}
	for _, tt := range tests {
		update, err := ctrl.ChangeYear(tt.in)
		if err != nil {
			t.Fatalf("ChangeYear(%d) failed: %v", tt.in, err)
		}
		if update.State.Year != tt.want {
			t.Errorf("ChangeYear(%d): Year = %d, want %d", tt.in, update.State.Year, tt.want)
		}
	}
}

func TestChangeYear_RequiresRenderedRegion(t *testing.T) {
	ctrl, _, _ := testController(t, Options{})
	if _, err := ctrl.ChangeYear(2020); !errors.Is(err, ErrNotRendered) {
		t.Fatalf("error = %v, want ErrNotRendered", err)
	}
	if err := ctrl.Play(); !errors.Is(err, ErrNotRendered) {
		t.Fatalf("Play error = %v, want ErrNotRendered", err)
	}
}

func TestSetScaleMode_SwitchesRange(t *testing.T) {
	ctrl, _, _ := testController(t, Options{})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}

	update, err := ctrl.SetScaleMode(models.ScaleNational)
	if err != nil {
		t.Fatalf("SetScaleMode failed: %v", err)
	}
	// The national range covers all five ZIPs, so its upper bound must be
	// at least as wide as the WI-only range.
	if update.Range.UpperBound < 320000 {
		t.Errorf("national upper bound = %v, want >= 320000", update.Range.UpperBound)
	}
	if update.Range.SampleCount != 5 {
		t.Errorf("national sample count = %d, want 5", update.Range.SampleCount)
	}

	back, err := ctrl.SetScaleMode(models.ScaleRegion)
	if err != nil {
		t.Fatalf("SetScaleMode(region) failed: %v", err)
	}
	if back.Range.UpperBound != 320000 {
		t.Errorf("region upper bound = %v, want 320000", back.Range.UpperBound)
	}

	if _, err := ctrl.SetScaleMode("galactic"); err == nil {
		t.Error("expected error for unknown scale mode")
	}
}

func TestSelectRegion_StaleFetchDiscarded(t *testing.T) {
	ctrl, fetcher, _ := testController(t, Options{})

	gate := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.release["CA"] = gate
	fetcher.mu.Unlock()

	var wg sync.WaitGroup
	var caErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, caErr = ctrl.SelectRegion(context.Background(), "CA")
	}()

	// Wait until the CA fetch is in flight, then select TX over it.
	deadline := time.Now().Add(2 * time.Second)
	for fetcher.callCount("CA") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("CA fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := ctrl.SelectRegion(context.Background(), "TX"); err != nil {
		t.Fatalf("SelectRegion(TX) failed: %v", err)
	}
	close(gate)
	wg.Wait()

	if !errors.Is(caErr, ErrSuperseded) {
		t.Fatalf("stale selection error = %v, want ErrSuperseded", caErr)
	}
	if got := ctrl.State().RegionID; got != "TX" {
		t.Errorf("rendered region = %q, want TX", got)
	}
}

func TestSelectRegion_FailureKeepsRenderedRegion(t *testing.T) {
	ctrl, fetcher, _ := testController(t, Options{})

	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion(WI) failed: %v", err)
	}

	fetcher.mu.Lock()
	fetcher.errs["CA"] = errors.New("boundary server unreachable")
	fetcher.mu.Unlock()

	_, err := ctrl.SelectRegion(context.Background(), "CA")
	var fetchErr *geometry.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *geometry.FetchError", err)
	}
	if fetchErr.Region != "CA" {
		t.Errorf("failed region = %q, want CA", fetchErr.Region)
	}
	if got := ctrl.Phase(); got != PhaseRendered {
		t.Errorf("phase after failed fetch = %v, want rendered", got)
	}
	if got := ctrl.State().RegionID; got != "WI" {
		t.Errorf("rendered region after failed fetch = %q, want WI", got)
	}
}

func TestSelectRegion_FailureFromIdle(t *testing.T) {
	ctrl, fetcher, _ := testController(t, Options{})
	fetcher.mu.Lock()
	fetcher.errs["WI"] = errors.New("boundary server unreachable")
	fetcher.mu.Unlock()

	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err == nil {
		t.Fatal("expected fetch error")
	}
	if got := ctrl.Phase(); got != PhaseIdle {
		t.Errorf("phase = %v, want idle", got)
	}
}

func TestSearchZip_Validation(t *testing.T) {
	ctrl, _, _ := testController(t, Options{})

	for _, input := range []string{"", "abcde", "1234a", "123456", "54 01"} {
		_, err := ctrl.SearchZip(context.Background(), input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("SearchZip(%q) error = %v, want *ValidationError", input, err)
		}
	}
}

func TestSearchZip_NotInDatabase(t *testing.T) {
	ctrl, fetcher, _ := testController(t, Options{})

	_, err := ctrl.SearchZip(context.Background(), "99999")
	var miss *LookupMissError
	if !errors.As(err, &miss) {
		t.Fatalf("error = %v, want *LookupMissError", err)
	}
	if miss.Kind != LookupMissDatabase {
		t.Errorf("miss kind = %v, want database miss", miss.Kind)
	}
	// The miss must not disturb the view: nothing fetched, still idle.
	if got := ctrl.Phase(); got != PhaseIdle {
		t.Errorf("phase = %v, want idle", got)
	}
	for _, id := range []string{"WI", "CA", "TX"} {
		if n := fetcher.callCount(id); n != 0 {
			t.Errorf("fetch count for %s = %d, want 0", id, n)
		}
	}
}

func TestSearchZip_NotInBoundaries(t *testing.T) {
	ctrl, _, _ := testController(t, Options{})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}

	// 54399 resolves to WI in the lookup table but the boundary set has no
	// matching feature.
	_, err := ctrl.SearchZip(context.Background(), "54399")
	var miss *LookupMissError
	if !errors.As(err, &miss) {
		t.Fatalf("error = %v, want *LookupMissError", err)
	}
	if miss.Kind != LookupMissBoundaries || miss.Region != "WI" {
		t.Errorf("miss = %+v, want boundaries miss in WI", miss)
	}
}

func TestSearchZip_CrossRegionSelectsFirst(t *testing.T) {
	ctrl, fetcher, _ := testController(t, Options{})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}

	update, err := ctrl.SearchZip(context.Background(), "90001")
	if err != nil {
		t.Fatalf("SearchZip failed: %v", err)
	}
	if fetcher.callCount("CA") != 1 {
		t.Errorf("CA fetch count = %d, want 1", fetcher.callCount("CA"))
	}
	if update.State.RegionID != "CA" {
		t.Errorf("RegionID = %q, want CA", update.State.RegionID)
	}
	if update.Highlight == nil || update.Highlight.Zip != "90001" {
		t.Fatalf("highlight = %+v, want ZIP 90001", update.Highlight)
	}
	if update.Bounds == nil {
		t.Error("expected bounds for zooming to the matched feature")
	}

	// Searching within the already-rendered region must not refetch.
	if _, err := ctrl.SearchZip(context.Background(), "90001"); err != nil {
		t.Fatalf("second SearchZip failed: %v", err)
	}
	if fetcher.callCount("CA") != 1 {
		t.Errorf("CA fetch count after same-region search = %d, want 1", fetcher.callCount("CA"))
	}
}

func TestSearchZip_HighlightAutoReverts(t *testing.T) {
	ctrl, _, updates := testController(t, Options{HighlightDuration: 30 * time.Millisecond})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}
	drain(updates)

	if _, err := ctrl.SearchZip(context.Background(), "54301"); err != nil {
		t.Fatalf("SearchZip failed: %v", err)
	}

	var sawHighlight bool
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.Highlight != nil {
				sawHighlight = true
				continue
			}
			if !sawHighlight {
				t.Fatal("revert published before highlight")
			}
			if u.State.RegionID != "WI" {
				t.Errorf("revert RegionID = %q, want WI", u.State.RegionID)
			}
			return
		case <-deadline:
			t.Fatal("highlight never reverted")
		}
	}
}

func TestPlay_RewindsAndAutoStops(t *testing.T) {
	ctrl, _, updates := testController(t, Options{FrameInterval: 5 * time.Millisecond})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}
	if got := ctrl.State().Year; got != models.MaxYear {
		t.Fatalf("start year = %d, want %d", got, models.MaxYear)
	}
	drain(updates)

	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	// Starting at 2025 first rewinds to 2000, then advances one year per
	// frame until stopping at 2025 again.
	var years []int
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-updates:
			years = append(years, u.State.Year)
			if !u.State.Playing && u.State.Year == models.MaxYear {
				goto done
			}
		case <-deadline:
			t.Fatalf("animation never finished; years so far: %v", years)
		}
	}
done:
	if years[0] != models.MinYear {
		t.Fatalf("first frame year = %d, want %d", years[0], models.MinYear)
	}
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			t.Fatalf("non-consecutive years at frame %d: %v", i, years)
		}
	}
	if last := years[len(years)-1]; last != models.MaxYear {
		t.Errorf("final year = %d, want %d", last, models.MaxYear)
	}
	if ctrl.State().Playing {
		t.Error("still playing after reaching the final year")
	}
}

func TestPause_StopsAnimation(t *testing.T) {
	ctrl, _, updates := testController(t, Options{FrameInterval: 10 * time.Millisecond, StartYear: 2000})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}
	drain(updates)

	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	// Let a few frames pass, then pause.
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no animation frame published")
	}
	ctrl.Pause()
	if ctrl.State().Playing {
		t.Fatal("still playing after Pause")
	}

	// At most one already-queued frame may land after Pause.
	time.Sleep(50 * time.Millisecond)
	drain(updates)
	time.Sleep(50 * time.Millisecond)
	select {
	case u := <-updates:
		t.Errorf("frame published after Pause: year %d", u.State.Year)
	default:
	}
}

func TestPlay_WhilePlayingIsNoop(t *testing.T) {
	ctrl, _, _ := testController(t, Options{FrameInterval: 50 * time.Millisecond, StartYear: 2000})
	if _, err := ctrl.SelectRegion(context.Background(), "WI"); err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}
	if err := ctrl.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	defer ctrl.Pause()
	if err := ctrl.Play(); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}
	if !ctrl.State().Playing {
		t.Error("not playing after double Play")
	}
}
