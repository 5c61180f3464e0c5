package source

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

//go:embed selectors.json
var embeddedSelectors embed.FS

// SelectorConfig holds the CSS selectors used to parse a Funda search
// result page. Keeping them in JSON lets a structure change upstream be
// fixed without a rebuild.
type SelectorConfig struct {
	ResultList ListSelectors `json:"result_list"`
}

type ListSelectors struct {
	Container ListContainer `json:"container"`
	Elements  ListElements  `json:"elements"`
}

type ListContainer struct {
	Item           string `json:"item"`
	IgnoreModifier string `json:"ignore_modifier"`
}

type ListElements struct {
	TitleLink   string `json:"title_link"`
	Price       string `json:"price"`
	Address     string `json:"address"`
	Postcode    string `json:"postcode"`
	Rooms       string `json:"rooms"`
	EnergyLabel string `json:"energy_label"`
}

// LoadSelectors tries the embedded selectors.json first, then the file
// named by SELECTORS_CONFIG_PATH, then hardcoded defaults.
func LoadSelectors() SelectorConfig {
	data, err := embeddedSelectors.ReadFile("selectors.json")
	if err == nil {
		sel, parseErr := parseSelectors(data)
		if parseErr == nil {
			return sel
		}
		slog.Warn("Embedded selectors failed to parse, trying file fallback", "error", parseErr)
	}

	if path := os.Getenv("SELECTORS_CONFIG_PATH"); path != "" {
		if fileData, err := os.ReadFile(path); err == nil {
			if sel, parseErr := parseSelectors(fileData); parseErr == nil {
				slog.Info("Loaded selectors from external file", "path", path)
				return sel
			}
		} else {
			slog.Warn("Failed to read external selectors", "path", path, "error", err)
		}
	}

	slog.Info("Using hardcoded default selectors")
	return DefaultSelectors()
}

func parseSelectors(data []byte) (SelectorConfig, error) {
	var cfg SelectorConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SelectorConfig{}, fmt.Errorf("parsing selector config: %w", err)
	}
	return cfg, nil
}

// DefaultSelectors is the fallback if no JSON config is usable. The
// embedded selectors.json is the source of truth and should match.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		ResultList: ListSelectors{
			Container: ListContainer{
				Item:           "div.search-result",
				IgnoreModifier: ".search-result--promoted",
			},
			Elements: ListElements{
				TitleLink:   ".search-result__header-title-col a[data-object-url-tracking]",
				Price:       ".search-result-price",
				Address:     ".search-result__header-title",
				Postcode:    ".search-result__header-subtitle",
				Rooms:       ".search-result-kenmerken",
				EnergyLabel: ".search-result-label",
			},
		},
	}
}
