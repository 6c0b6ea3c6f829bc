package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pauljones0/pl-jobs-scraper/internal/models"
)

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()
	scraped := time.Date(2024, 3, 15, 14, 37, 0, 0, time.UTC)

	tests := []struct {
		name    string
		offer   models.Offer
		wantErr bool
	}{
		{
			name: "Valid Offer",
			offer: models.Offer{
				Title:       "Go Developer",
				JobLink:     "https://www.pracuj.pl/praca/go-developer,oferta,1001",
				DateScraped: scraped,
			},
			wantErr: false,
		},
		{
			name: "Title Only",
			offer: models.Offer{
				Title:       "Go Developer",
				DateScraped: scraped,
			},
			wantErr: false,
		},
		{
			name: "Link Only",
			offer: models.Offer{
				JobLink:     "https://www.praca.pl/oferta_1.html",
				DateScraped: scraped,
			},
			wantErr: false,
		},
		{
			name: "Missing Title And Link",
			offer: models.Offer{
				Company:     "ACME",
				DateScraped: scraped,
			},
			wantErr: false,
		},
		{
			name: "Missing Scrape Date",
			offer: models.Offer{
				Title: "Go Developer",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.ValidateStruct(tt.offer); (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewOffer_ClearsFutureDatePosted(t *testing.T) {
	v := New()
	scraped := time.Date(2024, 3, 15, 14, 37, 0, 0, time.UTC)

	o, err := models.NewOffer(v, models.Offer{
		Title:       "Go Developer",
		DatePosted:  scraped.Add(48 * time.Hour),
		DateScraped: scraped,
	})
	if err != nil {
		t.Fatalf("NewOffer() returned unexpected error: %v", err)
	}
	if !o.DatePosted.IsZero() {
		t.Errorf("Expected future DatePosted to be cleared, got %v", o.DatePosted)
	}

	_, err = models.NewOffer(v, models.Offer{DateScraped: scraped})
	if !errors.Is(err, models.ErrInvalidOffer) {
		t.Errorf("Expected ErrInvalidOffer, got %v", err)
	}
}

func TestNewOffer_KeepsKeylessCard(t *testing.T) {
	scraped := time.Date(2024, 3, 15, 14, 37, 0, 0, time.UTC)

	o, err := models.NewOffer(New(), models.Offer{
		Company:     "Initech",
		Location:    "Kraków",
		DateScraped: scraped,
	})
	if err != nil {
		t.Fatalf("NewOffer() should keep a card without title or link, got %v", err)
	}
	if o.HasKey() {
		t.Errorf("Expected a key-less offer, got JobLink %q", o.JobLink)
	}
	if o.Company != "Initech" || o.Location != "Kraków" {
		t.Errorf("Unexpected offer fields: %+v", o)
	}
}

func TestValidator_FieldMessages(t *testing.T) {
	err := New().ValidateStruct(models.Offer{})
	if err == nil {
		t.Fatal("Expected an error for an empty offer")
	}
	if want := "Offer.DateScraped: required"; !strings.Contains(err.Error(), want) {
		t.Errorf("Error %q should mention %q", err, want)
	}
	if strings.Contains(err.Error(), "Offer.Title") {
		t.Errorf("Title is optional, error %q should not mention it", err)
	}
}
