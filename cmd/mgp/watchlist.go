package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/mgp/internal/common"
)

// watchlist is the YAML file accepted by --tickers-file
type watchlist struct {
	Name    string   `yaml:"name"`
	Tickers []string `yaml:"tickers"`
}

// loadWatchlist reads a YAML watchlist and returns its normalized tickers
func loadWatchlist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}

	var wl watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist %s: %w", path, err)
	}

	tickers := common.DedupeTickers(wl.Tickers)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("watchlist %s has no tickers", path)
	}
	return tickers, nil
}

// resolveTickers prefers the watchlist file over the inline list
func resolveTickers(inline, file string) ([]string, error) {
	if file != "" {
		return loadWatchlist(file)
	}
	tickers := common.ParseTickerList(inline)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers given")
	}
	return tickers, nil
}
