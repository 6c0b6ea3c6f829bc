package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pauljones0/pl-jobs-scraper/internal/models"
)

const sheetName = "offers"

var columns = []string{
	"job_link", "job_id", "title", "company", "company_link", "location",
	"work_model", "salary", "description", "logo_url", "date_posted", "date_scraped",
}

// timestamp layouts accepted on load; RFC 3339 is what Save writes.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

// XLSXStore keeps offers in a single-sheet workbook.
type XLSXStore struct {
	path string
}

func NewXLSX(path string) *XLSXStore {
	return &XLSXStore{path: path}
}

func (s *XLSXStore) Path() string {
	return s.path
}

// Load reads all offers. A missing file is an empty store (nil, nil).
func (s *XLSXStore) Load(ctx context.Context) ([]models.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrStore, s.path, err)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStore, s.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStore, s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index["job_link"]; !ok {
		return nil, fmt.Errorf("%w: %s has no job_link column", ErrStore, s.path)
	}

	offers := make([]models.Offer, 0, len(rows)-1)
	for n, row := range rows[1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		if strings.Join(row, "") == "" {
			continue
		}

		scraped, err := parseTime(get("date_scraped"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d date_scraped: %v", ErrStore, s.path, n+2, err)
		}
		// An unreadable posting date is an unknown one.
		posted, _ := parseTime(get("date_posted"))

		offers = append(offers, models.Offer{
			JobLink:     get("job_link"),
			JobID:       get("job_id"),
			Title:       get("title"),
			Company:     get("company"),
			CompanyLink: get("company_link"),
			Location:    get("location"),
			WorkModel:   get("work_model"),
			Salary:      get("salary"),
			Description: get("description"),
			LogoURL:     get("logo_url"),
			DatePosted:  posted,
			DateScraped: scraped,
		})
	}
	return offers, nil
}

// Save replaces the workbook with offers. The previous file stays intact until the
// new one is fully written.
func (s *XLSXStore) Save(ctx context.Context, offers []models.Offer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrStore, err)
	}
	for i, o := range offers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		row := []interface{}{
			o.JobLink, o.JobID, o.Title, o.Company, o.CompanyLink, o.Location,
			o.WorkModel, o.Salary, o.Description, o.LogoURL,
			formatTime(o.DatePosted), formatTime(o.DateScraped),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("%w: write row %d: %v", ErrStore, i+2, err)
		}
	}

	if err := writeAtomic(s.path, f); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

func writeAtomic(path string, f *excelize.File) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	// Removing after a successful rename is a no-op error we ignore.
	defer os.Remove(tmp.Name())

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, v, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
