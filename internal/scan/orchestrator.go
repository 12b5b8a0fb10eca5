package scan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/project-scout/internal/dates"
	"github.com/jonathan/project-scout/internal/db"
	"github.com/jonathan/project-scout/internal/fetch"
	"github.com/jonathan/project-scout/internal/scrape"
	"github.com/jonathan/project-scout/internal/sites"
	"github.com/jonathan/project-scout/internal/types"
)

// DefaultTimeRangeDays is the scan window when the caller does not specify
// one.
const DefaultTimeRangeDays = 7

// DefaultOutsideRangeFactor controls the hard lower bound for release dates.
// A card older than factor*timeRange days aborts its site: the listing is no
// longer date-ordered territory worth walking.
const DefaultOutsideRangeFactor = 2

// PageSource drives a browser session over one site's listing pages.
type PageSource interface {
	// OpenListing navigates to a listing URL and returns the rendered HTML.
	OpenListing(ctx context.Context, url, waitSelector string) (string, error)
	// ClickControl clicks a pagination control on the current listing page.
	ClickControl(ctx context.Context, selector string) error
	// ListingHTML returns the current HTML of the listing page.
	ListingHTML(ctx context.Context) (string, error)
	// FetchDetail renders a detail page without disturbing the listing page.
	FetchDetail(ctx context.Context, url string) (string, error)
	// Close releases the browser session.
	Close(ctx context.Context) error
}

// SourceFactory opens a fresh PageSource for a scan. Each scan gets its own
// browser session.
type SourceFactory func(ctx context.Context) (PageSource, error)

// Extractor turns detail-page text into structured project fields.
type Extractor interface {
	Extract(ctx context.Context, pageText string) (*types.ProjectFields, error)
}

// Store is the persistence surface a scan needs.
type Store interface {
	ExistingURLs(ctx context.Context) (map[string]struct{}, error)
	InsertProject(ctx context.Context, p *db.Project) (*db.Project, error)
	SetLastScan(ctx context.Context, last *db.LastScan) error
}

// Deduper removes duplicate projects after a scan. Returns how many rows
// were removed.
type Deduper interface {
	Run(ctx context.Context) (int, error)
}

// IndexRebuilder recomputes the relevance index after a scan. Returns how
// many skills were updated.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// Options configures an Orchestrator.
type Options struct {
	TimeRangeDays      int
	OutsideRangeFactor int
}

// Orchestrator runs scans over the configured sites: paginate listings,
// extract cards, enrich them from detail pages, store new projects, then
// deduplicate and rebuild the relevance index.
type Orchestrator struct {
	registry  *Registry
	sites     []sites.Descriptor
	newSource SourceFactory
	extractor Extractor
	store     Store
	deduper   Deduper
	rebuilder IndexRebuilder
	opts      Options
	log       *zap.Logger
}

// NewOrchestrator wires up a scan orchestrator.
func NewOrchestrator(registry *Registry, siteList []sites.Descriptor, newSource SourceFactory,
	extractor Extractor, store Store, deduper Deduper, rebuilder IndexRebuilder,
	opts Options, log *zap.Logger) *Orchestrator {
	if opts.TimeRangeDays <= 0 {
		opts.TimeRangeDays = DefaultTimeRangeDays
	}
	if opts.OutsideRangeFactor <= 0 {
		opts.OutsideRangeFactor = DefaultOutsideRangeFactor
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		registry:  registry,
		sites:     siteList,
		newSource: newSource,
		extractor: extractor,
		store:     store,
		deduper:   deduper,
		rebuilder: rebuilder,
		opts:      opts,
		log:       log,
	}
}

// Registry exposes the orchestrator's scan registry for cancellation.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Start begins a scan and returns its ID and event stream. The stream is
// closed when the scan finishes, is cancelled, or fails. timeRangeDays <= 0
// uses the configured default.
func (o *Orchestrator) Start(ctx context.Context, timeRangeDays int) (string, <-chan Event, error) {
	scanID, err := o.registry.Acquire()
	if err != nil {
		return "", nil, err
	}

	if timeRangeDays <= 0 {
		timeRangeDays = o.opts.TimeRangeDays
	}

	events := make(chan Event, 64)
	go o.run(ctx, scanID, timeRangeDays, events)
	return scanID, events, nil
}

func (o *Orchestrator) run(ctx context.Context, scanID string, timeRangeDays int, events chan<- Event) {
	defer close(events)
	defer o.registry.Release(scanID)

	log := o.log.With(zap.String("scan_id", scanID))
	log.Info("scan started", zap.Int("time_range_days", timeRangeDays), zap.Int("sites", len(o.sites)))
	events <- Event{Kind: EventStart, ScanID: scanID}

	existing, err := o.store.ExistingURLs(ctx)
	if err != nil {
		log.Error("failed to snapshot existing URLs", zap.Error(err))
		events <- Event{Kind: EventError, ScanID: scanID, Message: err.Error()}
		return
	}

	source, err := o.newSource(ctx)
	if err != nil {
		log.Error("failed to open browser session", zap.Error(err))
		events <- Event{Kind: EventError, ScanID: scanID, Message: err.Error()}
		return
	}
	defer func() { _ = source.Close(ctx) }()

	// Parsed release dates are UTC midnights; keep the cutoffs in the same
	// frame.
	today := dates.Truncate(time.Now().UTC())
	state := &scanState{
		scanID:   scanID,
		existing: existing,
		seen:     make(map[string]struct{}),
		cutoff:   today.AddDate(0, 0, -timeRangeDays),
		hardStop: today.AddDate(0, 0, -o.opts.OutsideRangeFactor*timeRangeDays),
	}

	cancelled := false
	for i := range o.sites {
		site := &o.sites[i]
		if err := o.scanSite(ctx, source, site, state, events); err != nil {
			if err == ErrCancelled || ctx.Err() != nil {
				cancelled = true
				break
			}
			log.Warn("site failed", zap.String("site", site.Name), zap.Error(err))
			events <- Event{Kind: EventError, ScanID: scanID, Site: site.Name, Message: err.Error()}
			continue
		}
	}

	if cancelled {
		log.Info("scan cancelled", zap.Int("new_projects", state.newProjects))
		events <- Event{Kind: EventCancelled, ScanID: scanID, NewProjects: state.newProjects}
		o.finish(ctx, scanID, state, true)
		return
	}

	if o.deduper != nil {
		removed, err := o.deduper.Run(ctx)
		if err != nil {
			log.Error("deduplication failed", zap.Error(err))
			events <- Event{Kind: EventError, ScanID: scanID, Message: err.Error()}
		} else {
			events <- Event{Kind: EventDeduplication, ScanID: scanID, Removed: removed}
		}
	}

	if o.rebuilder != nil {
		updated, err := o.rebuilder.Rebuild(ctx)
		if err != nil {
			log.Error("index rebuild failed", zap.Error(err))
			events <- Event{Kind: EventError, ScanID: scanID, Message: err.Error()}
		} else {
			events <- Event{Kind: EventTFIDFComplete, ScanID: scanID, NewProjects: updated}
		}
	}

	log.Info("scan complete", zap.Int("new_projects", state.newProjects))
	events <- Event{Kind: EventComplete, ScanID: scanID, NewProjects: state.newProjects}
	o.finish(ctx, scanID, state, false)
}

func (o *Orchestrator) finish(ctx context.Context, scanID string, state *scanState, cancelled bool) {
	err := o.store.SetLastScan(ctx, &db.LastScan{
		ScanID:      scanID,
		FinishedAt:  time.Now(),
		NewProjects: state.newProjects,
		Cancelled:   cancelled,
	})
	if err != nil {
		o.log.Warn("failed to record last scan", zap.Error(err))
	}
}

// scanState carries per-scan bookkeeping shared across sites.
type scanState struct {
	scanID      string
	existing    map[string]struct{}
	seen        map[string]struct{}
	cutoff      time.Time
	hardStop    time.Time
	newProjects int
}

// pageOutcome tells the site loop what to do after a page of cards.
type pageOutcome int

const (
	keepPaginating pageOutcome = iota
	stopPagination
	abortSite
)

func (o *Orchestrator) scanSite(ctx context.Context, source PageSource, site *sites.Descriptor,
	state *scanState, events chan<- Event) error {

	log := o.log.With(zap.String("scan_id", state.scanID), zap.String("site", site.Name))
	events <- Event{Kind: EventWebsiteStart, ScanID: state.scanID, Site: site.Name}

	html, err := source.OpenListing(ctx, site.URL, site.ListSelector)
	if err != nil {
		return &SiteError{Site: site.Name, Stage: "open", Cause: err}
	}

	page := 1
	loadMoreClicks := 0
	processedBefore := 0

	for {
		if err := o.checkCancelled(ctx, state.scanID); err != nil {
			return err
		}

		cards, err := scrape.Cards(html, site)
		if err != nil {
			return &SiteError{Site: site.Name, Stage: "extract", Cause: err}
		}

		// Load-more pages grow in place: only cards beyond the previous
		// count are new.
		newCards := cards
		if processedBefore > 0 && processedBefore <= len(cards) {
			newCards = cards[processedBefore:]
		}

		events <- Event{Kind: EventProgress, ScanID: state.scanID, Site: site.Name,
			Page: page, CardsSeen: len(newCards)}
		log.Debug("page extracted", zap.Int("page", page), zap.Int("cards", len(newCards)))

		outcome, err := o.processCards(ctx, source, site, state, newCards, events)
		if err != nil {
			return err
		}
		if outcome == abortSite {
			log.Info("site aborted, cards far outside scan window", zap.Int("page", page))
			break
		}
		if outcome == stopPagination {
			break
		}

		control, target, err := scrape.NextControl(html, site)
		if err != nil {
			return &SiteError{Site: site.Name, Stage: "extract", Cause: err}
		}
		switch control {
		case scrape.ControlNone:
			log.Debug("no pagination control, site exhausted", zap.Int("pages", page))
		case scrape.ControlLink:
			html, err = source.OpenListing(ctx, target, site.ListSelector)
			if err != nil {
				return &SiteError{Site: site.Name, Stage: "open", Cause: err}
			}
			processedBefore = 0
			page++
			continue
		case scrape.ControlButton:
			if loadMoreClicks >= site.MaxLoadMoreAttempts() {
				log.Warn("load-more cap reached", zap.Int("clicks", loadMoreClicks))
				break
			}
			before := scrape.CountCards(html, site)
			if err := source.ClickControl(ctx, site.NextPageSelector); err != nil {
				return &SiteError{Site: site.Name, Stage: "open", Cause: err}
			}
			loadMoreClicks++
			html, err = source.ListingHTML(ctx)
			if err != nil {
				return &SiteError{Site: site.Name, Stage: "open", Cause: err}
			}
			if scrape.CountCards(html, site) <= before {
				// Click added nothing, the site has no more projects.
				break
			}
			processedBefore = before
			page++
			continue
		}
		break
	}

	events <- Event{Kind: EventWebsiteComplete, ScanID: state.scanID, Site: site.Name,
		NewProjects: state.newProjects}
	return nil
}

func (o *Orchestrator) processCards(ctx context.Context, source PageSource, site *sites.Descriptor,
	state *scanState, cards []scrape.Card, events chan<- Event) (pageOutcome, error) {

	outcome := keepPaginating

	for _, card := range cards {
		if err := o.checkCancelled(ctx, state.scanID); err != nil {
			return outcome, err
		}

		fields := card.Fields(site)

		if !fields.Pinned {
			if rel, ok := dates.Parse(fields.ReleaseDate); ok {
				rel = dates.Truncate(rel)
				if rel.Before(state.hardStop) {
					return abortSite, nil
				}
				if rel.Before(state.cutoff) {
					// Listings are date-ordered: everything after this card
					// is older still.
					return stopPagination, nil
				}
				if rel.Equal(state.cutoff) {
					// Process the rest of this page, then stop.
					outcome = stopPagination
				}
			}
		}

		if fields.URL == "" {
			continue
		}
		if _, ok := state.existing[fields.URL]; ok {
			continue
		}
		if _, ok := state.seen[fields.URL]; ok {
			continue
		}
		state.seen[fields.URL] = struct{}{}

		stored, err := o.processCard(ctx, source, site, &fields)
		if err != nil {
			if err == ErrCancelled || ctx.Err() != nil {
				return outcome, ErrCancelled
			}
			o.log.Warn("card failed",
				zap.String("site", site.Name), zap.String("url", fields.URL), zap.Error(err))
			events <- Event{Kind: EventError, ScanID: state.scanID, Site: site.Name, Message: err.Error()}
			continue
		}

		state.newProjects++
		events <- Event{Kind: EventProject, ScanID: state.scanID, Site: site.Name,
			Project: stored, NewProjects: state.newProjects}
	}

	return outcome, nil
}

func (o *Orchestrator) processCard(ctx context.Context, source PageSource, site *sites.Descriptor,
	cardFields *types.ProjectFields) (*db.Project, error) {

	html, err := source.FetchDetail(ctx, cardFields.URL)
	if err != nil {
		return nil, &SiteError{Site: site.Name, Stage: "detail", Cause: err}
	}

	// Relay sites link out to the tenderer's own posting; follow it so the
	// extractor sees the full description.
	if external, ok := scrape.ExternalDetailURL(html, site); ok {
		if externalHTML, err := o.fetchExternal(ctx, source, external); err == nil {
			html = externalHTML
		}
	}

	text, err := fetch.ExtractMainText(html, fetch.ProjectDetailSelectors())
	if err != nil {
		return nil, &SiteError{Site: site.Name, Stage: "detail", Cause: err}
	}

	detail, err := o.extractor.Extract(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		// Keep the project: the card fields alone are worth storing. It just
		// has no requirements until a later rescan fills them in.
		o.log.Warn("extraction failed, storing card fields only",
			zap.String("site", site.Name), zap.String("url", cardFields.URL), zap.Error(err))
		detail = &types.ProjectFields{}
	}

	merged := Consolidate(cardFields, detail)

	project := &db.Project{
		SiteName:       site.Name,
		Title:          merged.Title,
		Description:    merged.Description,
		ReleaseDate:    merged.ReleaseDate,
		StartDate:      merged.StartDate,
		Location:       merged.Location,
		Tenderer:       merged.Tenderer,
		SiteProjectID:  merged.SiteProjectID,
		Rate:           merged.Rate,
		URL:            merged.URL,
		Budget:         merged.Budget,
		Duration:       merged.Duration,
		Workload:       merged.Workload,
		RequirementsTF: merged.RequirementsTF,
	}

	stored, err := o.store.InsertProject(ctx, project)
	if err != nil {
		return nil, &SiteError{Site: site.Name, Stage: "store", Cause: err}
	}
	return stored, nil
}

// fetchExternal retrieves a tenderer's own posting. Off-site postings are
// usually server-rendered, so plain HTTP is tried first; the browser covers
// script-heavy pages.
func (o *Orchestrator) fetchExternal(ctx context.Context, source PageSource, url string) (string, error) {
	if res, err := fetch.URL(ctx, url, nil); err == nil {
		return res.HTML, nil
	}
	return source.FetchDetail(ctx, url)
}

func (o *Orchestrator) checkCancelled(ctx context.Context, scanID string) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}
	if o.registry.Cancelled(scanID) {
		return ErrCancelled
	}
	return nil
}
