package scraper

import (
	"embed"
	"log/slog"
)

//go:embed selectors.json
var embeddedSelectors embed.FS

// LoadConfig tries to load selectors in the following order:
// 1. External file at path, when path is set
// 2. Embedded selectors.json
// 3. Hardcoded defaults
func LoadConfig(logger *slog.Logger, path string) SelectorConfig {
	if path != "" {
		if fileSel, err := LoadSelectors(path); err == nil {
			logger.Info("Loaded selectors from external file", "path", path)
			return fileSel
		} else {
			logger.Warn("Failed to load external selectors, trying embedded config", "path", path, "error", err)
		}
	}

	data, err := embeddedSelectors.ReadFile("selectors.json")
	if err == nil {
		sel, parseErr := LoadSelectorsFromBytes(data)
		if parseErr == nil {
			logger.Info("Loaded selectors from embedded config.")
			return sel
		}
		logger.Warn("Embedded selectors failed to parse. Using defaults.", "error", parseErr)
	}

	logger.Info("Using hardcoded default selectors")
	return DefaultSelectors()
}
