package scraper

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pauljones0/pl-jobs-scraper/internal/dates"
	"github.com/pauljones0/pl-jobs-scraper/internal/models"
	"github.com/pauljones0/pl-jobs-scraper/internal/util"
)

// Extractor turns one rendered result page of a portal into offers.
type Extractor struct {
	portal    Portal
	months    dates.MonthMapping
	validator models.Validator
	logger    *slog.Logger
}

func NewExtractor(portal Portal, months dates.MonthMapping, v models.Validator, logger *slog.Logger) *Extractor {
	return &Extractor{
		portal:    portal,
		months:    months,
		validator: v,
		logger:    logger,
	}
}

// Extract parses content and returns one offer per card, stamping each with scrapedAt.
// Cards without any field are logged and skipped. A page without cards yields an empty slice.
func (e *Extractor) Extract(content string, scrapedAt time.Time) ([]models.Offer, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page content: %w", err)
	}

	offers := []models.Offer{}
	doc.Find(e.portal.Selectors.Card).Each(func(i int, s *goquery.Selection) {
		offer, err := e.extractCard(s, scrapedAt)
		if err != nil {
			e.logger.Warn("Skipping offer card", "index", i, "error", err)
			return
		}
		offers = append(offers, offer)
	})
	return offers, nil
}

func (e *Extractor) extractCard(s *goquery.Selection, scrapedAt time.Time) (offer models.Offer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting card: %v", r)
		}
	}()

	f := e.portal.Selectors.Fields
	var parseErrors []string
	get := func(name string, fs FieldSelector) string {
		v, ferr := e.field(s, fs)
		if ferr != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("%s: %v", name, ferr))
		}
		return v
	}
	link := func(name string, fs FieldSelector, strip ...string) string {
		raw := get(name, fs)
		normalized, nerr := util.NormalizeURL(raw, e.portal.BaseURL, strip...)
		if nerr != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("%s: %v", name, nerr))
			return raw
		}
		return normalized
	}

	offer.Title = get("title", f.Title)
	offer.JobLink = link("job_link", f.JobLink, e.portal.StripParams...)
	offer.JobID = get("job_id", f.JobID)
	offer.Company = get("company", f.Company)
	offer.CompanyLink = link("company_link", f.CompanyLink)
	offer.Location = get("location", f.Location)
	offer.WorkModel = get("work_model", f.WorkModel)
	offer.Salary = get("salary", f.Salary)
	offer.Description = get("description", f.Description)
	offer.LogoURL = link("logo_url", f.LogoURL)
	offer.DateScraped = scrapedAt

	if raw := get("date_posted", f.DatePosted); raw != "" {
		if posted, ok := dates.Normalize(raw, scrapedAt, e.months); ok {
			offer.DatePosted = posted
		} else {
			parseErrors = append(parseErrors, fmt.Sprintf("date_posted: unrecognised date %q", raw))
		}
	}

	if len(parseErrors) > 0 {
		e.logger.Debug("Offer card parsed with errors", "title", offer.Title, "errors", parseErrors)
	}
	return models.NewOffer(e.validator, offer)
}

// field reads one value from a card. A missing selector or element yields "".
func (e *Extractor) field(s *goquery.Selection, fs FieldSelector) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = "", fmt.Errorf("panic: %v", r)
		}
	}()

	if fs.Selector == "" {
		return "", nil
	}
	sel := s.Find(fs.Selector).First()
	if sel.Length() == 0 {
		return "", nil
	}

	if fs.Attr != "" {
		value, _ = sel.Attr(fs.Attr)
	} else {
		value = sel.Text()
	}
	value = util.CollapseSpace(value)
	if fs.TrimPrefix != "" {
		value = strings.TrimSpace(strings.TrimPrefix(value, util.CollapseSpace(fs.TrimPrefix)))
	}
	return value, nil
}
