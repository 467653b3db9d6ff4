package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_pagewatch/internal/config"
	"github.com/bassista/go_pagewatch/internal/detector"
	"github.com/bassista/go_pagewatch/internal/state"
)

type countingReporter struct {
	flushed int
}

func (r *countingReporter) Report(error, ...string) {}
func (r *countingReporter) Flush()                  { r.flushed++ }

func testConfig(url string) *config.Config {
	return &config.Config{
		Target: config.TargetConfig{
			URL:        url,
			Format:     "text",
			Recipients: []string{"ops@example.com"},
		},
		Schedule: config.ScheduleConfig{At: "12:30", Timezone: "UTC"},
		State:    config.StateConfig{Driver: state.DriverMemory},
		Fetch:    config.FetchConfig{Timeout: 2 * time.Second, UserAgent: "test"},
		Notify: config.NotifyConfig{
			Driver:      "log",
			Timeout:     time.Second,
			OnUnchanged: true,
			Subject:     "Site monitoring report",
		},
	}
}

func TestNewFromConfig_Success(t *testing.T) {
	app, err := NewFromConfig(testConfig("https://example.com"), nil)
	require.NoError(t, err)
	defer app.Shutdown()

	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.Watcher)
	assert.NotNil(t, app.Scheduler)
	assert.NotNil(t, app.Reporter)
	assert.NotNil(t, app.BaseCtx)
	assert.Equal(t, "12:30:00", app.Scheduler.Trigger().String())
	assert.Equal(t, "UTC", app.Scheduler.Location().String())
}

func TestNewFromConfig_InvalidTarget(t *testing.T) {
	_, err := NewFromConfig(testConfig("not a url"), nil)
	assert.Error(t, err)
}

func TestNewFromConfig_UnknownDrivers(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.State.Driver = "redis"
	_, err := NewFromConfig(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig("https://example.com")
	cfg.Notify.Driver = "pigeon"
	_, err = NewFromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestNewFromConfig_NilConfig(t *testing.T) {
	_, err := NewFromConfig(nil, nil)
	assert.EqualError(t, err, "config is nil")
}

func TestNew_NilDependencies(t *testing.T) {
	full, err := NewFromConfig(testConfig("https://example.com"), nil)
	require.NoError(t, err)
	defer full.Shutdown()

	_, err = New(nil, full.Store, full.Watcher, full.Scheduler, nil)
	assert.EqualError(t, err, "config is nil")
	_, err = New(full.Config, nil, full.Watcher, full.Scheduler, nil)
	assert.Error(t, err)
	_, err = New(full.Config, full.Store, nil, full.Scheduler, nil)
	assert.Error(t, err)
	_, err = New(full.Config, full.Store, full.Watcher, nil, nil)
	assert.Error(t, err)
}

func TestApp_CheckNowRunsCycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Hello World"))
	}))
	defer srv.Close()

	app, err := NewFromConfig(testConfig(srv.URL), nil)
	require.NoError(t, err)
	defer app.Shutdown()

	assert.Error(t, app.CheckNow(), "not started yet")
	require.NoError(t, app.Start())
	require.NoError(t, app.CheckNow())

	require.Eventually(t, func() bool {
		_, ok := app.Watcher.LastResult()
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	res, _ := app.Watcher.LastResult()
	assert.Equal(t, detector.NoBaseline, res.Outcome)
	h, ok, err := app.Store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b10a8db164e0754105b7a99be72e3fe5", h.String())
}

func TestApp_Shutdown(t *testing.T) {
	rep := &countingReporter{}
	app, err := NewFromConfig(testConfig("https://example.com"), rep)
	require.NoError(t, err)

	select {
	case <-app.BaseCtx.Done():
		t.Fatal("context should not be done before shutdown")
	default:
	}

	app.Shutdown()

	select {
	case <-app.BaseCtx.Done():
	default:
		t.Fatal("context should be done after shutdown")
	}
	assert.Equal(t, 1, rep.flushed)
}

func TestApp_Shutdown_Nil(t *testing.T) {
	var app *App
	assert.NotPanics(t, app.Shutdown)
	assert.NotPanics(t, (&App{}).Shutdown)
}
