/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; connect-src 'self' ws: wss:")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

// networkURLs lists the addresses students on the local network can reach.
func networkURLs(cfg *Config) []string {
	var urls []string

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return urls
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
			continue
		}
		urls = append(urls, cfg.scheme()+"://"+net.JoinHostPort(ipNet.IP.String(), strconv.Itoa(cfg.port))+cfg.prefix+"/")
	}

	return urls
}

func logBanner(cfg *Config, rounds int) {
	logf("START: picword v%s, %d rounds loaded from %s", releaseVersion, rounds, cfg.questions)
	logf("START: Local:   %s://%s%s/", cfg.scheme(), net.JoinHostPort("localhost", strconv.Itoa(cfg.port)), cfg.prefix)
	for _, u := range networkURLs(cfg) {
		logf("START: Network: %s", u)
	}
	logf("START: Join as %q to control the game", adminName)
	if cfg.roundSeconds > 0 {
		logf("START: Timer: %ds per round", cfg.roundSeconds)
	} else {
		logf("START: Timer: disabled")
	}
}

func newRouter(cfg *Config, h *Hub, errs chan<- error) *httprouter.Router {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		errorf("SERVE: Recovered panic serving %s: %v", r.URL.Path, i)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))

	mux.GET(cfg.prefix+"/app/*file", serveAssets(cfg, errs))

	if cfg.assets != "" {
		mux.ServeFiles(cfg.prefix+"/assets/*filepath", http.Dir(cfg.assets))
	}

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, h, errs))

	mux.GET(cfg.prefix+"/qr", serveQR(cfg))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/state", serveState(cfg, h, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, h))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	return mux
}

func ServePage(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	rounds, err := loadQuestions(cfg.questions)
	if err != nil {
		return err
	}

	hub := newHub(cfg, rounds)
	go hub.run(ctx)

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			errorf("SERVE: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           newRouter(cfg, hub, errs),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: timeout,
	}

	logBanner(cfg, len(rounds))
	logImages(cfg, rounds)

	serveErr := make(chan error, 1)

	go func() {
		var err error
		logf("SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logf("SERVE: Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
