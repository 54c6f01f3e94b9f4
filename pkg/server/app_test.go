package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/config"
	xhttp "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/http"
)

type blockingRunner struct {
	started chan struct{}
	err     error
}

func (r *blockingRunner) Run(ctx context.Context) error {
	close(r.started)
	if r.err != nil {
		return r.err
	}
	<-ctx.Done()
	return nil
}

type closeLog struct {
	mu    sync.Mutex
	order []string
}

type recordingCloser struct {
	name string
	log  *closeLog
	err  error
}

func (c recordingCloser) Close() error {
	c.log.mu.Lock()
	defer c.log.mu.Unlock()
	c.log.order = append(c.log.order, c.name)
	return c.err
}

func newTestApp(t *testing.T, r Runner) *App {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	srv := xhttp.NewServer(nil, nil,
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(0),
		xhttp.WithRegistry(prometheus.NewRegistry()),
	)
	return New(cfg, nil, r, srv)
}

func TestApp_StopsOnContextCancel(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{})}
	app := newTestApp(t, r)
	log := &closeLog{}
	app.OnShutdown("publisher", recordingCloser{name: "publisher", log: log})
	app.OnShutdown("cache", recordingCloser{name: "cache", log: log})
	app.OnShutdown("missing", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	<-r.started
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, []string{"cache", "publisher"}, log.order)
}

func TestApp_RunnerFailureStillCloses(t *testing.T) {
	boom := errors.New("backfill: store closed")
	r := &blockingRunner{started: make(chan struct{}), err: boom}
	app := newTestApp(t, r)
	log := &closeLog{}
	app.OnShutdown("cache", recordingCloser{name: "cache", log: log, err: errors.New("conn reset")})

	err := app.RunContext(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "close cache")
	assert.Equal(t, []string{"cache"}, log.order)
}
