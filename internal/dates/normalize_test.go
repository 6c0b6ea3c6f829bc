package dates

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	ref := time.Date(2024, 3, 15, 14, 37, 12, 500, time.UTC)
	months := MonthMapping{Languages: map[string]Language{
		"pl": {Months: map[string]string{"lutego": "02", "marca": "03", "października": "10"}},
	}}

	tests := []struct {
		name   string
		raw    string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "Hours ago truncated to the hour",
			raw:    "3 godz.",
			want:   time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "Hours ago with trailing text",
			raw:    "1 godz. temu",
			want:   time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "Zero hours is the current hour",
			raw:    "0 godz.",
			want:   time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "Days ago truncated to midnight",
			raw:    "2 dni",
			want:   time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "Days ago across month boundary",
			raw:    "20 dni temu",
			want:   time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "Absolute date",
			raw:    "5 marca 2024",
			want:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "Absolute date with uppercase month",
			raw:    "12 PAŹDZIERNIKA 2023",
			want:   time.Date(2023, 10, 12, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "Leap day",
			raw:    "29 lutego 2024",
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "Unknown month", raw: "5 marzeca 2024"},
		{name: "Too few tokens", raw: "5 marca"},
		{name: "Too many tokens", raw: "5 marca 2024 r."},
		{name: "Non numeric hours", raw: "kilka godz."},
		{name: "Non numeric days", raw: "kilka dni"},
		{name: "Empty", raw: "   "},
		{name: "Unrelated text", raw: "wczoraj"},
		{name: "Impossible day", raw: "31 lutego 2024"},
		{name: "Leap day in common year", raw: "29 lutego 2023"},
		{name: "Negative hours", raw: "-2 godz."},
		{name: "Negative days", raw: "-1 dni"},
		{name: "Hours out of range", raw: "3000000 godz."},
		{name: "Days out of range", raw: "99999999999 dni"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw, ref, months)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestComposeAbsolute(t *testing.T) {
	months := MonthMapping{Languages: map[string]Language{
		"pl": {Months: map[string]string{"marca": "03"}},
	}}

	got, err := ComposeAbsolute([]string{"5", "marca", "2024"}, months)
	if err != nil {
		t.Fatalf("ComposeAbsolute() returned unexpected error: %v", err)
	}
	if got != "5-03-2024" {
		t.Errorf("ComposeAbsolute() = %q, want %q", got, "5-03-2024")
	}

	got, err = ComposeAbsolute([]string{"5", "smarch", "2024"}, months)
	if err != nil {
		t.Fatalf("ComposeAbsolute() returned unexpected error: %v", err)
	}
	if got != "5-00-2024" {
		t.Errorf("ComposeAbsolute() with unknown month = %q, want sentinel month", got)
	}

	if _, err := ComposeAbsolute([]string{"5", "marca"}, months); err == nil {
		t.Error("ComposeAbsolute() should fail on two tokens")
	}
}

func TestDefaultMonthMapping(t *testing.T) {
	m := DefaultMonthMapping()

	tests := map[string]string{
		"stycznia":     "01",
		"Lutego":       "02",
		"WRZEŚNIA":     "09",
		"grudnia":      "12",
		"nieznany":     MonthSentinel,
		"października": "10",
	}
	for name, want := range tests {
		if got := m.Lookup("pl", name); got != want {
			t.Errorf("Lookup(pl, %q) = %q, want %q", name, got, want)
		}
	}
	if got := m.Lookup("de", "März"); got != MonthSentinel {
		t.Errorf("Lookup for unknown locale = %q, want sentinel", got)
	}
}

func TestLoadMonthMappingFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "Malformed JSON", data: `{"languages":`},
		{name: "No languages", data: `{}`},
		{name: "Three digit month", data: `{"languages":{"pl":{"months":{"marca":"003"}}}}`},
		{name: "Non numeric month", data: `{"languages":{"pl":{"months":{"marca":"mm"}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadMonthMappingFromBytes([]byte(tt.data)); err == nil {
				t.Error("LoadMonthMappingFromBytes() should return an error")
			}
		})
	}
}
