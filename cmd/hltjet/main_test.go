package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	app "github.com/okian/hltjet/internal/app"
	"github.com/okian/hltjet/internal/config"
	"github.com/okian/hltjet/pkg/logger"
	"github.com/okian/hltjet/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("HLTJET_ADDR", ":8080")
			_ = os.Setenv("HLTJET_QUEUE_SIZE", "1000")
			_ = os.Setenv("HLTJET_WORKER_COUNT", "4")
			convey.Reset(func() {
				_ = os.Unsetenv("HLTJET_ADDR")
				_ = os.Unsetenv("HLTJET_QUEUE_SIZE")
				_ = os.Unsetenv("HLTJET_WORKER_COUNT")
			})

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the mux is built for a started service", func() {
			ctx := context.Background()
			svc := app.New(app.WithWorkerCount(1))
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			convey.Reset(func() { _ = svc.Stop(ctx) })
			mux := newMux(ctx, svc)

			convey.Convey("Then every route is served", func() {
				for path, want := range map[string]int{
					"/healthz":          http.StatusOK,
					"/stats":            http.StatusOK,
					"/openapi.yaml":     http.StatusOK,
					"/api-docs":         http.StatusOK,
					"/products/1/1/1":   http.StatusNotFound,
					"/products/garbage": http.StatusBadRequest,
				} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, want)
				}
			})

			convey.Convey("Then an empty event is rejected", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{}`)))
				convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
			})

			convey.Convey("Then the service gauges can be refreshed", func() {
				updateServiceMetrics(svc)
				expected := `
# HELP hltjet_producers_worker_count Number of configured workers
# TYPE hltjet_producers_worker_count gauge
hltjet_producers_worker_count 1
`
				err := testutil.GatherAndCompare(metrics.GetRegistry(), strings.NewReader(expected), "hltjet_producers_worker_count")
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the updaters run against a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			svc := app.New()

			convey.Convey("Then they return immediately", func() {
				done := make(chan struct{})
				go func() {
					startSystemMetricsUpdater(ctx)
					startServiceMetricsUpdater(ctx, svc)
					close(done)
				}()
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("metrics updaters did not stop")
				}
			})
		})

		convey.Convey("When system metrics are updated", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestRunFailsOnBusyAddress(t *testing.T) {
	convey.Convey("Given an address that is already in use", t, func() {
		busy := httptest.NewServer(http.NotFoundHandler())
		convey.Reset(busy.Close)

		cfg := config.New()
		cfg.Addr = strings.TrimPrefix(busy.URL, "http://")
		cfg.WorkerCount = 1

		convey.Convey("Then run reports the listener error", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := run(ctx, cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "address already in use")
		})
	})
}
