package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOffer is returned when a scraped card does not carry enough data to form an offer.
var ErrInvalidOffer = errors.New("invalid offer")

// Offer is one job posting as scraped from a portal at a point in time.
// Empty strings mean the card had no such element. A zero DatePosted means the
// posting date is unknown.
type Offer struct {
	JobLink     string    `firestore:"jobLink"`
	JobID       string    `firestore:"jobID,omitempty"`
	Title       string    `firestore:"title"`
	Company     string    `firestore:"company,omitempty"`
	CompanyLink string    `firestore:"companyLink,omitempty"`
	Location    string    `firestore:"location,omitempty"`
	WorkModel   string    `firestore:"workModel,omitempty"`
	Salary      string    `firestore:"salary,omitempty"`
	Description string    `firestore:"description,omitempty"`
	LogoURL     string    `firestore:"logoURL,omitempty"`
	DatePosted  time.Time `firestore:"datePosted"`
	DateScraped time.Time `firestore:"dateScraped" validate:"required"`
}

// blank reports whether no field at all was read from the card.
func (o Offer) blank() bool {
	for _, v := range []string{o.JobLink, o.JobID, o.Title, o.Company, o.CompanyLink, o.Location, o.WorkModel, o.Salary, o.Description, o.LogoURL} {
		if v != "" {
			return false
		}
	}
	return o.DatePosted.IsZero()
}

// HasKey reports whether the offer can be deduplicated by its job link.
func (o Offer) HasKey() bool {
	return o.JobLink != ""
}

// Validator is satisfied by internal/validator.Validator.
type Validator interface {
	ValidateStruct(s interface{}) error
}

// NewOffer checks o against the presence rules and clears a posting date that lies
// after the scrape instant. Offers without a link are kept as key-less records; only
// a card that yielded no field at all is rejected.
func NewOffer(v Validator, o Offer) (Offer, error) {
	if !o.DatePosted.IsZero() && o.DatePosted.After(o.DateScraped) {
		o.DatePosted = time.Time{}
	}
	if o.blank() {
		return Offer{}, fmt.Errorf("%w: card has no fields", ErrInvalidOffer)
	}
	if err := v.ValidateStruct(o); err != nil {
		return Offer{}, errors.Join(ErrInvalidOffer, err)
	}
	return o, nil
}

// LatestScrape returns the most recent DateScraped among offers, or the zero time.
func LatestScrape(offers []Offer) time.Time {
	var latest time.Time
	for _, o := range offers {
		if o.DateScraped.After(latest) {
			latest = o.DateScraped
		}
	}
	return latest
}
