package dates

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pauljones0/pl-jobs-scraper/internal/validator"
)

// MonthSentinel is returned by Lookup for month names missing from the mapping.
const MonthSentinel = "00"

//go:embed month_mapping.json
var embeddedMonths []byte

// MonthMapping maps a locale code to its month names and their two digit numbers.
type MonthMapping struct {
	Languages map[string]Language `json:"languages" validate:"required,dive"`
}

type Language struct {
	Name   string            `json:"name"`
	Months map[string]string `json:"months" validate:"required,dive,keys,required,endkeys,len=2,numeric"`
}

// LoadMonthMapping reads a mapping from a JSON file.
func LoadMonthMapping(path string) (MonthMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MonthMapping{}, fmt.Errorf("failed to read month mapping file: %w", err)
	}
	return LoadMonthMappingFromBytes(data)
}

// LoadMonthMappingFromBytes parses and validates a mapping from raw JSON bytes.
func LoadMonthMappingFromBytes(data []byte) (MonthMapping, error) {
	var m MonthMapping
	if err := json.Unmarshal(data, &m); err != nil {
		return MonthMapping{}, fmt.Errorf("failed to parse month mapping JSON: %w", err)
	}
	if err := validator.New().ValidateStruct(m); err != nil {
		return MonthMapping{}, fmt.Errorf("month mapping: %w", err)
	}
	return m, nil
}

// DefaultMonthMapping returns the embedded Polish mapping.
func DefaultMonthMapping() MonthMapping {
	m, err := LoadMonthMappingFromBytes(embeddedMonths)
	if err != nil {
		panic(fmt.Sprintf("embedded month mapping is invalid: %v", err))
	}
	return m
}

// Lookup returns the two digit month for name in locale, matching case-insensitively.
// Unknown locales and names yield MonthSentinel.
func (m MonthMapping) Lookup(locale, name string) string {
	lang, ok := m.Languages[locale]
	if !ok {
		return MonthSentinel
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	fold := cases.Lower(tag)
	want := fold.String(name)
	for month, number := range lang.Months {
		if fold.String(month) == want {
			return number
		}
	}
	return MonthSentinel
}
