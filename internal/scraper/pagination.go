package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pauljones0/pl-jobs-scraper/internal/util"
)

// ErrPaginationUnparseable is returned when the pagination control exists but holds no page number.
var ErrPaginationUnparseable = errors.New("pagination control unparseable")

// MaxPage reads the number of result pages from the first rendered page.
// A page without the pagination control has exactly one page.
func MaxPage(content, selector string) (int, error) {
	if selector == "" {
		return 1, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return 0, fmt.Errorf("failed to parse page content: %w", err)
	}

	control := doc.Find(selector).First()
	if control.Length() == 0 {
		return 1, nil
	}
	n, err := util.ParsePageNumber(control.Text())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPaginationUnparseable, err)
	}
	return n, nil
}
