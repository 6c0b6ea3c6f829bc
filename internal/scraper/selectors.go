package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

// SelectorConfig holds the markup selectors for every supported portal, keyed by portal name.
type SelectorConfig struct {
	Portals map[string]PortalSelectors `json:"portals"`
}

type PortalSelectors struct {
	Card       string         `json:"card"`       // e.g., `div[data-test="default-offer"]`
	Consent    string         `json:"consent"`    // cookie banner accept button
	Pagination string         `json:"pagination"` // element holding the last page number
	Fields     FieldSelectors `json:"fields"`
}

type FieldSelectors struct {
	Title       FieldSelector `json:"title"`
	JobLink     FieldSelector `json:"job_link"`
	JobID       FieldSelector `json:"job_id"`
	Company     FieldSelector `json:"company"`
	CompanyLink FieldSelector `json:"company_link"`
	Location    FieldSelector `json:"location"`
	WorkModel   FieldSelector `json:"work_model"`
	Salary      FieldSelector `json:"salary"`
	Description FieldSelector `json:"description"`
	LogoURL     FieldSelector `json:"logo_url"`
	DatePosted  FieldSelector `json:"date_posted"`
}

// FieldSelector locates one value inside a card. An empty Attr reads the element text.
type FieldSelector struct {
	Selector   string `json:"selector"`
	Attr       string `json:"attr,omitempty"`
	TrimPrefix string `json:"trim_prefix,omitempty"`
}

// LoadSelectors loads the selector configuration from the specified JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}

	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes.
// This supports loading from embedded data via go:embed.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}
	for name, p := range config.Portals {
		if p.Card == "" {
			return SelectorConfig{}, fmt.Errorf("portal %q has no card selector", name)
		}
	}

	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is loaded.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Portals: map[string]PortalSelectors{
			PracujPL: {
				Card:       `div[data-test="default-offer"]`,
				Consent:    `button[data-test="button-submitCookie"]`,
				Pagination: `span[data-test="top-pagination-max-page-number"]`,
				Fields: FieldSelectors{
					Title:       FieldSelector{Selector: `h2[data-test="offer-title"]`},
					JobLink:     FieldSelector{Selector: `h2[data-test="offer-title"] a`, Attr: "href"},
					Company:     FieldSelector{Selector: `h3[data-test="text-company-name"]`},
					CompanyLink: FieldSelector{Selector: `h3[data-test="text-company-name"] a`, Attr: "href"},
					Location:    FieldSelector{Selector: `h4[data-test="text-region"]`},
					Salary:      FieldSelector{Selector: `span[data-test="offer-salary"]`},
					DatePosted:  FieldSelector{Selector: `p[data-test="text-added"]`, TrimPrefix: "Opublikowana: "},
				},
			},
			PracaPL: {
				Card:       "li.listing__item",
				Consent:    "#cookiesPopup button",
				Pagination: "a.pagination__item.pagination__item--last",
				Fields: FieldSelectors{
					Title:       FieldSelector{Selector: "a.listing__title"},
					JobLink:     FieldSelector{Selector: "a.listing__title", Attr: "href"},
					JobID:       FieldSelector{Selector: "a.listing__title", Attr: "data-id"},
					Company:     FieldSelector{Selector: "a.listing__employer-name"},
					CompanyLink: FieldSelector{Selector: "a.listing__employer-name", Attr: "href"},
					Location:    FieldSelector{Selector: "span.listing__location-name"},
					WorkModel:   FieldSelector{Selector: "span.listing__work-model"},
					Salary:      FieldSelector{Selector: "div.listing__main-details"},
					Description: FieldSelector{Selector: "div.listing__teaser"},
					LogoURL:     FieldSelector{Selector: "img.listing__logo", Attr: "src"},
					DatePosted:  FieldSelector{Selector: "div.listing__secondary-details"},
				},
			},
		},
	}
}
