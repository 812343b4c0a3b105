// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/invowk/shtest/pkg/settings"

	"github.com/charmbracelet/log"
)

type (
	// Options are the process-wide switches.
	Options struct {
		// InsecureSkipVerify disables TLS certificate validation for
		// http.DefaultTransport and every client that uses it.
		InsecureSkipVerify bool
	}
)

var (
	once    sync.Once
	mu      sync.Mutex
	applied *Options

	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "harness",
		Level:  log.WarnLevel,
	})
)

// OptionsFromSettings reads the harness keys from s.
func OptionsFromSettings(s *settings.Settings) (Options, error) {
	if err := s.Load(context.Background()); err != nil {
		return Options{}, err
	}
	return Options{
		InsecureSkipVerify: s.Bool(settings.KeyHarnessInsecureSkipVerify, false),
	}, nil
}

// Apply installs opts. Only the first call in a process has an effect; it
// reports whether this call was the one applied.
func Apply(opts Options) bool {
	first := false
	once.Do(func() {
		first = true
		install(opts)

		mu.Lock()
		applied = &opts
		mu.Unlock()
	})
	return first
}

// Applied returns the options in effect and whether Apply has run.
func Applied() (Options, bool) {
	mu.Lock()
	defer mu.Unlock()

	if applied == nil {
		return Options{}, false
	}
	return *applied, true
}

// Main applies opts and runs the tests.
func Main(m *testing.M, opts Options) int {
	Apply(opts)
	return m.Run()
}

func install(opts Options) {
	if !opts.InsecureSkipVerify {
		return
	}

	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		logger.Warn("default transport is not *http.Transport, leaving it untouched")
		return
	}

	t := base.Clone()
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	t.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opt-in test harness switch
	http.DefaultTransport = t

	logger.Warn("TLS certificate validation is disabled for this process")
}
