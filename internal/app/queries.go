package app

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hazards_directory/internal/curation"
	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
)

const (
	DefaultPageSize     = 24
	DefaultTopRated     = 6
	MaxTopRated         = 50
	RegionTopRatedLimit = 3
	// SitemapLimit caps how many providers the sitemap lists.
	SitemapLimit = 10000
)

// Regions maps a region slug to its states.
var Regions = map[string][]string{
	"southeast": {"Florida", "Georgia", "North Carolina", "South Carolina"},
}

// RegionCategories are the categories summarised on region pages.
var RegionCategories = []domain.Category{domain.CategoryMold, domain.CategoryWater, domain.CategoryPest}

type Options struct {
	PageSize          int
	// TopRatedMinRating is the top-rated threshold; nil means
	// curation.DefaultMinRating. Zero is a valid threshold.
	TopRatedMinRating *float64
	TopRatedOverFetch int
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.TopRatedMinRating == nil {
		r := curation.DefaultMinRating
		o.TopRatedMinRating = &r
	}
	if o.TopRatedOverFetch <= 0 {
		o.TopRatedOverFetch = curation.DefaultOverFetch
	}
	return o
}

// ProvidersPage is a curated listing. Total is the store's count before
// paging and curation.
type ProvidersPage struct {
	Items []domain.Provider `json:"items"`
	Total int               `json:"total"`
}

// BrowsePage is one page of the provider directory.
type BrowsePage struct {
	Items      []domain.Provider `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	States     []string          `json:"states"`
}

type RegionSummary struct {
	Region   string                                `json:"region"`
	States   []string                              `json:"states"`
	Counts   map[domain.Category]int               `json:"counts"`
	TopRated map[domain.Category][]domain.Provider `json:"top_rated"`
}

type QueryService struct {
	store    domain.ProviderStore
	cache    domain.Cache
	cacheTTL time.Duration
	opts     Options
}

// NewQueryService wires the read side. c may be nil to disable caching.
func NewQueryService(s domain.ProviderStore, c domain.Cache, ttl time.Duration, opts Options) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl, opts: opts.withDefaults()}
}

func (s *QueryService) PageSize() int { return s.opts.PageSize }

// MaxPage is the largest page whose offset still fits in an int.
func (s *QueryService) MaxPage() int { return math.MaxInt/s.opts.PageSize - 1 }

// ListProviders applies f, curates the returned slice and keeps the store total.
func (s *QueryService) ListProviders(ctx context.Context, f query.Filters) (ProvidersPage, error) {
	q := query.Build(f)
	q.CountExact = true
	list, err := s.store.ListProviders(ctx, q)
	if err != nil {
		return ProvidersPage{}, err
	}
	items := curation.Curate(list.Items)
	if items == nil {
		items = []domain.Provider{}
	}
	return ProvidersPage{Items: items, Total: list.Total}, nil
}

// BrowseProviders serves a 1-based page of the directory together with the
// state list for the filter controls.
func (s *QueryService) BrowseProviders(ctx context.Context, f query.Filters, page int) (BrowsePage, error) {
	size := s.opts.PageSize
	page = min(max(page, 1), s.MaxPage())
	f.Limit = size
	f.Offset = (page - 1) * size

	var (
		listing ProvidersPage
		states  []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listing, err = s.ListProviders(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		states, err = s.States(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return BrowsePage{}, err
	}

	totalPages := 1
	if listing.Total > 0 {
		totalPages = (listing.Total + size - 1) / size
	}
	return BrowsePage{
		Items:      listing.Items,
		Total:      listing.Total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		States:     states,
	}, nil
}

func (s *QueryService) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	return readThrough(ctx, s, providerKey(id), func(ctx context.Context) (domain.Provider, error) {
		return s.store.GetProvider(ctx, id)
	})
}

func (s *QueryService) States(ctx context.Context) ([]string, error) {
	return readThrough(ctx, s, statesKey, s.store.DistinctStates)
}

func (s *QueryService) Counties(ctx context.Context, state string) ([]string, error) {
	return readThrough(ctx, s, countiesKey(state), func(ctx context.Context) ([]string, error) {
		return s.store.DistinctCounties(ctx, state)
	})
}

// TopRated over-fetches limit × over-fetch rows in name order and hands them
// to the selector. An empty state means nationwide.
func (s *QueryService) TopRated(ctx context.Context, category domain.Category, state string, limit int) ([]domain.Provider, error) {
	if limit <= 0 {
		return []domain.Provider{}, nil
	}
	list, err := s.store.ListProviders(ctx, query.Build(query.Filters{
		State:           state,
		ServiceCategory: string(category),
		Limit:           limit * s.opts.TopRatedOverFetch,
	}))
	if err != nil {
		return nil, err
	}
	out := curation.SelectTopRated(list.Items, curation.TopRatedOptions{
		MinRating: *s.opts.TopRatedMinRating,
		Limit:     limit,
	})
	if out == nil {
		out = []domain.Provider{}
	}
	return out, nil
}

// RegionSummary counts providers per category across the region's states
// and picks the top rated per category.
func (s *QueryService) RegionSummary(ctx context.Context, region string) (RegionSummary, error) {
	states, ok := Regions[region]
	if !ok {
		return RegionSummary{}, eris.Wrapf(domain.ErrNotFound, "region %q", region)
	}

	counts := make([][]int, len(RegionCategories))
	top := make([][]domain.Provider, len(RegionCategories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for ci, c := range RegionCategories {
		counts[ci] = make([]int, len(states))
		for si, st := range states {
			g.Go(func() error {
				q := query.Build(query.Filters{State: st, ServiceCategory: string(c), Limit: 1})
				q.CountExact = true
				list, err := s.store.ListProviders(gctx, q)
				if err != nil {
					return err
				}
				counts[ci][si] = list.Total
				return nil
			})
		}
		g.Go(func() error {
			ps, err := s.TopRated(gctx, c, "", RegionTopRatedLimit)
			top[ci] = ps
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return RegionSummary{}, err
	}

	out := RegionSummary{
		Region:   region,
		States:   append([]string(nil), states...),
		Counts:   make(map[domain.Category]int, len(RegionCategories)),
		TopRated: make(map[domain.Category][]domain.Provider, len(RegionCategories)),
	}
	for ci, c := range RegionCategories {
		for _, n := range counts[ci] {
			out.Counts[c] += n
		}
		out.TopRated[c] = top[ci]
	}
	return out, nil
}

// SitemapProviders returns up to SitemapLimit providers in name order.
func (s *QueryService) SitemapProviders(ctx context.Context) ([]domain.Provider, error) {
	list, err := s.store.ListProviders(ctx, query.Build(query.Filters{Limit: SitemapLimit}))
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

/********** cache **********/

const statesKey = "states"

func providerKey(id string) string     { return "provider:" + id }
func countiesKey(state string) string { return "counties:" + state }

// readThrough serves key from the cache, loading and storing it on a miss.
// Cache failures are logged and never fail the request.
func readThrough[T any](ctx context.Context, s *QueryService, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, key, &v)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		if ok {
			return v, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return v, nil
}
