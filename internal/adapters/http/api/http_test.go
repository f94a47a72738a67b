package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/hltjet/internal/adapters/http/api"
	"github.com/okian/hltjet/internal/adapters/mq/queue"
	"github.com/okian/hltjet/internal/adapters/repository"
	"github.com/okian/hltjet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	seen       map[model.EventKey]bool
	enqueued   []*model.Event
	enqueueErr error
	products   map[model.EventKey]*model.Products
	productErr error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		seen:     make(map[model.EventKey]bool),
		products: make(map[model.EventKey]*model.Products),
	}
}

func (m *mockDependencies) SeenAndRecord(_ context.Context, key model.EventKey) bool {
	if m.seen[key] {
		return true
	}
	m.seen[key] = true
	return false
}

func (m *mockDependencies) Unrecord(_ context.Context, key model.EventKey) {
	delete(m.seen, key)
}

func (m *mockDependencies) Size() int64 {
	return int64(len(m.seen))
}

func (m *mockDependencies) Enqueue(_ context.Context, ev *model.Event) (string, error) {
	if m.enqueueErr != nil {
		return "", m.enqueueErr
	}
	m.enqueued = append(m.enqueued, ev)
	return fmt.Sprintf("ingest-%d", len(m.enqueued)), nil
}

func (m *mockDependencies) Products(_ context.Context, key model.EventKey) (*model.Products, error) {
	if m.productErr != nil {
		return nil, m.productErr
	}
	p, ok := m.products[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, repository.ErrNotFound)
	}
	return p, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

const validEvent = `{"run":362000,"lumi":40,"event":7,
	"jets":{"hltAK4CaloJets":[{"p4":{"pt":60,"eta":0.5,"phi":1,"mass":5}}]},
	"hits":{"hltEcalRecHit:EcalRecHitsEB":[{"detid":838904321,"energy":4,"time":1.5,"time_error":1,"flags":0}]}}`

func newMux(deps *mockDependencies, stats map[string]any) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: stats}).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDependencies(), map[string]any{"started": true})

		Convey("Then the health endpoint serves metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "hltjet_")
		})

		Convey("Then the stats endpoint is accessible", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the events endpoint validates its body", func() {
			w := serve(mux, http.MethodPost, "/events", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then the products endpoint reports unknown events", func() {
			w := serve(mux, http.MethodGet, "/products/1/2/3", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then unknown paths are not found", func() {
			w := serve(mux, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given an events handler", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps, nil)

		Convey("When handling a valid POST request", func() {
			w := serve(mux, http.MethodPost, "/events", validEvent)

			Convey("Then it should return accepted status with an ingest id", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				body := decode(w)
				So(body["status"], ShouldEqual, "accepted")
				So(body["duplicate"], ShouldEqual, false)
				So(body["ingest_id"], ShouldEqual, "ingest-1")
			})

			Convey("Then the decoded event reaches the queue", func() {
				So(deps.enqueued, ShouldHaveLength, 1)
				ev := deps.enqueued[0]
				So(ev.EventKey, ShouldResemble, model.EventKey{Run: 362000, Lumi: 40, Event: 7})
				So(ev.Jets["hltAK4CaloJets"], ShouldHaveLength, 1)
				So(ev.Hits["hltEcalRecHit:EcalRecHitsEB"][0].Energy, ShouldEqual, float32(4))
			})
		})

		Convey("When handling a duplicate event", func() {
			first := serve(mux, http.MethodPost, "/events", validEvent)
			second := serve(mux, http.MethodPost, "/events", validEvent)

			Convey("Then it should return duplicate status", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				body := decode(second)
				So(body["status"], ShouldEqual, "duplicate")
				So(body["duplicate"], ShouldEqual, true)
				So(deps.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When handling an invalid JSON request", func() {
			w := serve(mux, http.MethodPost, "/events", `{"run":`)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the event carries no collections", func() {
			w := serve(mux, http.MethodPost, "/events", `{"run":1,"lumi":1,"event":1}`)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "no collections")
				So(deps.Size(), ShouldEqual, int64(0))
			})
		})

		Convey("When handling a non-POST request", func() {
			w := serve(mux, http.MethodGet, "/events", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When enqueue fails due to backpressure", func() {
			deps.enqueueErr = fmt.Errorf("enqueue: %w", queue.ErrFull)
			w := serve(mux, http.MethodPost, "/events", validEvent)

			Convey("Then it should return too many requests status", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "backpressure")
			})

			Convey("Then the key is released so a retry is not a duplicate", func() {
				So(deps.Size(), ShouldEqual, int64(0))
				deps.enqueueErr = nil
				retry := serve(mux, http.MethodPost, "/events", validEvent)
				So(retry.Code, ShouldEqual, http.StatusAccepted)
			})
		})

		Convey("When the service cannot accept events", func() {
			deps.enqueueErr = errors.New("service not started")
			w := serve(mux, http.MethodPost, "/events", validEvent)

			Convey("Then it should return service unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(deps.Size(), ShouldEqual, int64(0))
			})
		})
	})
}

func TestProductsHandler(t *testing.T) {
	Convey("Given a products handler with one processed event", t, func() {
		deps := newMockDependencies()
		key := model.EventKey{Run: 362000, Lumi: 40, Event: 7}
		p := model.NewProducts(key)
		p.PutFloats("hltJetTimingProducer", []float32{1.25, -50})
		p.PutCounts("hltJetTimingProducer:jetCellsForTiming", []uint32{3, 0})
		deps.products[key] = p
		mux := newMux(deps, nil)

		Convey("When requesting the processed event", func() {
			w := serve(mux, http.MethodGet, "/products/362000/40/7", "")

			Convey("Then it should return its products", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got model.Products
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.EventKey, ShouldResemble, key)
				So(got.Floats["hltJetTimingProducer"], ShouldResemble, []float32{1.25, -50})
				So(got.Counts["hltJetTimingProducer:jetCellsForTiming"], ShouldResemble, []uint32{3, 0})
			})
		})

		Convey("When requesting an unknown event", func() {
			w := serve(mux, http.MethodGet, "/products/362000/40/8", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When the path is malformed", func() {
			for _, path := range []string{"/products/", "/products/1/2", "/products/a/2/3", "/products/1/2/3/4"} {
				w := serve(mux, http.MethodGet, path, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the store is unavailable", func() {
			deps.productErr = errors.New("service not started")
			w := serve(mux, http.MethodGet, "/products/362000/40/7", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When using a method other than GET", func() {
			w := serve(mux, http.MethodDelete, "/products/362000/40/7", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatsHandler(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mux := newMux(newMockDependencies(), map[string]any{
			"started":         true,
			"eventsProcessed": 12,
			"producers":       []string{"hltJetTimingProducer"},
		})

		Convey("When handling stats request", func() {
			w := serve(mux, http.MethodGet, "/stats", "")

			Convey("Then it should return stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				body := decode(w)
				So(body["started"], ShouldEqual, true)
				So(body["eventsProcessed"], ShouldEqual, float64(12))
			})
		})

		Convey("When posting to stats", func() {
			w := serve(mux, http.MethodPost, "/stats", "{}")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
