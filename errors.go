/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: logDate}).
	With().Timestamp().Logger().
	Level(zerolog.WarnLevel)

func setupLogging(cfg *Config) {
	switch {
	case cfg.debug:
		logger = logger.Level(zerolog.DebugLevel)
	case cfg.verbose:
		logger = logger.Level(zerolog.InfoLevel)
	default:
		logger = logger.Level(zerolog.WarnLevel)
	}
}

func logf(format string, args ...any) {
	logger.Info().Msgf(format, args...)
}

func debugf(format string, args ...any) {
	logger.Debug().Msgf(format, args...)
}

func errorf(format string, args ...any) {
	logger.Error().Msgf(format, args...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
