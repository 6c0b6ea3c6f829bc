// Package storage persists the full offer set of a portal between runs.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/pauljones0/pl-jobs-scraper/internal/models"
)

// ErrStore marks persistence failures. A run cannot continue without its store.
var ErrStore = errors.New("offer store")

const (
	BackendXLSX      = "xlsx"
	BackendFirestore = "firestore"
)

// offerID derives a stable document id. Offers without a link are keyed by their content.
func offerID(o models.Offer) string {
	key := "link\x00" + o.JobLink
	if !o.HasKey() {
		key = strings.Join([]string{
			"keyless", o.JobID, o.Title, o.Company, o.CompanyLink, o.Location, o.WorkModel, o.Salary, o.Description, o.LogoURL,
			o.DatePosted.UTC().Format(time.RFC3339Nano), o.DateScraped.UTC().Format(time.RFC3339Nano),
		}, "\x00")
	}
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
