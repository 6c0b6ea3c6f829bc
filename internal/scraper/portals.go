package scraper

import (
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	PracujPL = "pracuj_pl"
	PracaPL  = "praca_pl"
)

// Query is the search a run performs on every portal.
type Query struct {
	Keyword  string
	City     string
	Distance int // radius in km
}

// Portal describes how to address and parse one job portal.
type Portal struct {
	Name        string
	BaseURL     *url.URL
	StripParams []string // per-search tracking parameters removed from job links
	Selectors   PortalSelectors

	pageURL func(q Query, page int) string
}

// PageURL returns the search results URL for the given 1-based page.
func (p Portal) PageURL(q Query, page int) string {
	return p.pageURL(q, page)
}

// NewPortal returns the portal definition for name with selectors taken from sel.
func NewPortal(name string, sel SelectorConfig) (Portal, error) {
	selectors, ok := sel.Portals[name]
	if !ok {
		return Portal{}, fmt.Errorf("no selectors configured for portal %q", name)
	}

	switch name {
	case PracujPL:
		return Portal{
			Name:        name,
			BaseURL:     mustParse("https://www.pracuj.pl"),
			StripParams: []string{"s", "searchId", "ref"},
			Selectors:   selectors,
			pageURL:     pracujPageURL,
		}, nil
	case PracaPL:
		return Portal{
			Name:      name,
			BaseURL:   mustParse("https://www.praca.pl"),
			Selectors: selectors,
			pageURL:   pracaPageURL,
		}, nil
	}
	return Portal{}, fmt.Errorf("unknown portal %q", name)
}

func pracujPageURL(q Query, page int) string {
	v := url.Values{}
	v.Set("rd", strconv.Itoa(q.Distance))
	v.Set("pn", strconv.Itoa(page))
	return fmt.Sprintf("https://www.pracuj.pl/praca/%s;kw/%s;wp?%s",
		url.PathEscape(q.Keyword), url.PathEscape(q.City), v.Encode())
}

func pracaPageURL(q Query, page int) string {
	citySlug := cases.Lower(language.Polish).String(q.City)
	v := url.Values{}
	v.Set("p", q.Keyword)
	v.Set("m", q.City)
	v.Set("cr", strconv.Itoa(q.Distance))
	return fmt.Sprintf("https://www.praca.pl/s-%s_m-%s_%d.html?%s",
		url.PathEscape(q.Keyword), url.PathEscape(citySlug), page, v.Encode())
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
