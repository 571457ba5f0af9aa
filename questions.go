/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const imagesPerRound = 4

// Round is one puzzle: a secret word and the four images that hint at it.
type Round struct {
	Word   string   `json:"word"`
	Images []string `json:"images"`
}

var errNoRounds = errors.New("question file contains no rounds")

func loadQuestions(path string) ([]Round, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return parseQuestions(data)
}

func parseQuestions(data []byte) ([]Round, error) {
	var rounds []Round
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}

	if len(rounds) == 0 {
		return nil, errNoRounds
	}

	for i := range rounds {
		rounds[i].Word = strings.TrimSpace(rounds[i].Word)
		if rounds[i].Word == "" {
			return nil, fmt.Errorf("round %d: missing word", i+1)
		}
		if len(rounds[i].Images) != imagesPerRound {
			return nil, fmt.Errorf("round %d: expected %d images, found %d", i+1, imagesPerRound, len(rounds[i].Images))
		}
	}

	return rounds, nil
}
