// Package hh queries the HH job-board search API. A Client is safe for
// concurrent use; every request carries a bounded timeout and failures are
// returned to the caller as errors, never panics.
package hh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"vacancybot/pkg/logx"
)

// ErrBadStatus marks a non-2xx response from the API.
var ErrBadStatus = errors.New("hh: unexpected status")

const (
	defaultPerPage = 100
	userAgent      = "vacancybot/1.0"
)

// Words excluded from listing titles. The bot targets junior positions, so
// explicitly senior titles are filtered server-side via the NOT operator.
var defaultExcludeWords = []string{"старший", "ведущий"}

type Config struct {
	BaseURL string
	AreaID  string
	Timeout time.Duration

	// PerPage caps one search page; the API maximum is 100.
	PerPage int

	// ExcludeWords are appended to the query as NOT terms.
	// Nil means the default senior-title exclusions.
	ExcludeWords []string
}

// SearchPair is one (query, experience filter) combination the poller fans
// out over. Experience may be empty (no server-side filter).
type SearchPair struct {
	Query      string
	Experience string
}

// CrossPairs builds the fan-out list: every query crossed with every
// experience filter. With no filters each query forms one unfiltered pair.
func CrossPairs(queries, experience []string) []SearchPair {
	if len(experience) == 0 {
		experience = []string{""}
	}
	pairs := make([]SearchPair, 0, len(queries)*len(experience))
	for _, q := range queries {
		for _, e := range experience {
			pairs = append(pairs, SearchPair{Query: q, Experience: e})
		}
	}
	return pairs
}

type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.ExcludeWords == nil {
		cfg.ExcludeWords = defaultExcludeWords
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// Search returns the listings currently matching one query/filter pair,
// in the server's publication-time order. A transport error or non-2xx
// status yields a nil slice and a non-nil error; the caller decides whether
// that is fatal (for this bot it never is).
func (c *Client) Search(ctx context.Context, query, experience string) ([]Vacancy, error) {
	q := url.Values{}
	q.Set("text", withExclusions(query, c.cfg.ExcludeWords))
	q.Set("area", c.cfg.AreaID)
	q.Set("per_page", strconv.Itoa(c.cfg.PerPage))
	q.Set("order_by", "publication_time")
	q.Set("search_field", "name")
	if experience != "" {
		q.Set("experience", experience)
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/vacancies?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	// HH rejects requests without a User-Agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hh: search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w %d for %q", ErrBadStatus, resp.StatusCode, query)
	}

	var body struct {
		Items []Vacancy `json:"items"`
		Found int       `json:"found"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("hh: decode %q: %w", query, err)
	}

	c.log.Debug("search done",
		logx.String("query", query),
		logx.String("experience", experience),
		logx.Int("items", len(body.Items)),
		logx.Int("found", body.Found))
	return body.Items, nil
}

// FetchAll runs every pair, unions the results and deduplicates by vacancy
// id (a listing matching several pairs is kept once, first hit wins). The
// union is sorted by publish time descending; listings with unparseable
// timestamps sink to the end in source order.
//
// Per-pair failures are joined into the returned error while the remaining
// pairs still contribute results, so callers get partial data plus an
// explicit failure signal.
func (c *Client) FetchAll(ctx context.Context, pairs []SearchPair) ([]Vacancy, error) {
	var (
		union []Vacancy
		seen  = make(map[string]struct{})
		errs  []error
	)
	for _, p := range pairs {
		items, err := c.Search(ctx, p.Query, p.Experience)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, v := range items {
			if v.ID == "" {
				continue
			}
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			union = append(union, v)
		}
	}

	SortNewestFirst(union)
	return union, errors.Join(errs...)
}

// SortNewestFirst orders vacancies by publish time descending. The sort is
// stable, so equal or missing timestamps keep their source order.
func SortNewestFirst(vs []Vacancy) {
	type entry struct {
		v  Vacancy
		t  time.Time
		ok bool
	}
	entries := make([]entry, len(vs))
	for i, v := range vs {
		t, ok := v.PublishedTime()
		entries[i] = entry{v: v, t: t, ok: ok}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		if ei.ok != ej.ok {
			return ei.ok
		}
		if !ei.ok {
			return false
		}
		return ei.t.After(ej.t)
	})
	for i := range entries {
		vs[i] = entries[i].v
	}
}

func withExclusions(query string, exclude []string) string {
	if len(exclude) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString(query)
	for _, w := range exclude {
		if w = strings.TrimSpace(w); w != "" {
			b.WriteString(" NOT ")
			b.WriteString(w)
		}
	}
	return b.String()
}
