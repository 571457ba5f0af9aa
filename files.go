/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const assetsRoute = "assets/"

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

// scanImages resolves every round image served from the local assets
// directory and reports the ones that are missing, along with the total
// size of those found. Remote URLs are skipped.
func scanImages(dir string, rounds []Round) (missing []string, total int64) {
	if dir == "" {
		return nil, 0
	}

	for _, round := range rounds {
		for _, image := range round.Images {
			rel, ok := strings.CutPrefix(image, assetsRoute)
			if !ok {
				continue
			}

			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil || info.IsDir() {
				missing = append(missing, image)
				continue
			}

			total += info.Size()
		}
	}

	return missing, total
}

func logImages(cfg *Config, rounds []Round) {
	missing, total := scanImages(cfg.assets, rounds)

	for _, image := range missing {
		errorf("START: Image %s not found under %s", image, cfg.assets)
	}

	if total > 0 {
		logf("START: Serving %s of round images from %s", humanReadableSize(total), cfg.assets)
	}
}
