package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grbuguj/Sinker-IOT/internal/adapters/http/api"
	"github.com/grbuguj/Sinker-IOT/internal/adapters/repository"
	"github.com/grbuguj/Sinker-IOT/internal/adapters/ws"
	service "github.com/grbuguj/Sinker-IOT/internal/app"
	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
	"github.com/grbuguj/Sinker-IOT/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeDeps is a scripted Dependencies implementation for handler tests.
type fakeDeps struct {
	acceptAck  service.Ack
	acceptErr  error
	accepted   []model.Reading
	latest     model.Record
	latestErr  error
	history    []model.Record
	historyErr error
	lastQuery  service.HistoryQuery
	entries    []thresholds.Entry
	upserted   map[string]float64
}

func (f *fakeDeps) Accept(_ context.Context, r model.Reading) (service.Ack, error) {
	f.accepted = append(f.accepted, r)
	return f.acceptAck, f.acceptErr
}

func (f *fakeDeps) Latest(_ context.Context) (model.Record, error) {
	return f.latest, f.latestErr
}

func (f *fakeDeps) History(_ context.Context, q service.HistoryQuery) ([]model.Record, error) {
	f.lastQuery = q
	return f.history, f.historyErr
}

func (f *fakeDeps) ExportCSV(_ context.Context, q service.HistoryQuery, w io.Writer) (int, error) {
	f.lastQuery = q
	_, _ = io.WriteString(w, "created_at,moisture\n2026-03-14 12:00:00,810\n")
	return 1, nil
}

func (f *fakeDeps) Thresholds(_ context.Context) ([]thresholds.Entry, error) {
	return f.entries, nil
}

func (f *fakeDeps) UpsertThreshold(_ context.Context, name string, value float64) (thresholds.Entry, error) {
	if f.upserted == nil {
		f.upserted = make(map[string]float64)
	}
	f.upserted[name] = value
	return thresholds.Entry{Name: name, Value: value}, nil
}

func (f *fakeDeps) Subscribe(_ ws.Conn) *ws.Subscriber { return nil }
func (f *fakeDeps) Unsubscribe(_ *ws.Subscriber)       {}
func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *fakeDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

const validBody = `{
	"moisture": 810.5,
	"accel": {"x": 0.1, "y": 0.2, "z": 9.8},
	"gyro": {"x": 0.01, "y": 0.02, "z": 0.03},
	"vibration_raw": 120,
	"timestamp": "2026-03-14T12:00:00Z"
}`

func TestSensorEndpoint(t *testing.T) {
	Convey("Given the HTTP API over a scripted pipeline", t, func() {
		deps := &fakeDeps{acceptAck: service.Ack{ID: 42, RiskLevel: model.RiskWarning}}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When posting a valid reading", func() {
			resp, err := http.Post(srv.URL+"/sensor", "application/json", strings.NewReader(validBody))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the ack carries the id and risk level", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
				So(body["id"], ShouldEqual, 42)
				So(body["risk_level"], ShouldEqual, 1)
			})

			Convey("And the pipeline saw the decoded reading", func() {
				So(len(deps.accepted), ShouldEqual, 1)
				So(deps.accepted[0].Moisture, ShouldEqual, 810.5)
				So(deps.accepted[0].Accel.Z, ShouldEqual, 9.8)
				So(deps.accepted[0].Timestamp, ShouldEqual, "2026-03-14T12:00:00Z")
			})
		})

		Convey("When posting malformed JSON", func() {
			resp, err := http.Post(srv.URL+"/sensor", "application/json", strings.NewReader("{not json"))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it is a 400 with an error body", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["status"], ShouldEqual, "error")
				So(len(deps.accepted), ShouldEqual, 0)
			})
		})

		Convey("When a required field is missing", func() {
			resp, err := http.Post(srv.URL+"/sensor", "application/json",
				strings.NewReader(`{"accel":{"x":1},"vibration_raw":5}`))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the accel and gyro vectors are missing", func() {
			resp, err := http.Post(srv.URL+"/sensor", "application/json",
				strings.NewReader(`{"moisture": 800, "vibration_raw": 0}`))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the reading is rejected and nothing is persisted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(len(deps.accepted), ShouldEqual, 0)
			})
		})

		Convey("When the pipeline rejects the reading", func() {
			deps.acceptErr = fmt.Errorf("%w: non-finite sensor value", service.ErrValidation)
			resp, err := http.Post(srv.URL+"/sensor", "application/json", strings.NewReader(validBody))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When persistence fails", func() {
			deps.acceptErr = fmt.Errorf("%w: store closed", service.ErrPersistence)
			resp, err := http.Post(srv.URL+"/sensor", "application/json", strings.NewReader(validBody))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(srv.URL + "/sensor")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHistoryEndpoints(t *testing.T) {
	Convey("Given the HTTP API over a scripted pipeline", t, func() {
		created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
		deps := &fakeDeps{
			latest: model.Record{ID: 7, Moisture: 810, RiskLevel: model.RiskNormal, CreatedAt: created},
			history: []model.Record{
				{ID: 2, CreatedAt: created},
				{ID: 1, CreatedAt: created.Add(-time.Minute)},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When fetching the latest record", func() {
			resp, err := http.Get(srv.URL + "/latest")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the record is returned as JSON", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var rec model.Record
				So(json.NewDecoder(resp.Body).Decode(&rec), ShouldBeNil)
				So(rec.ID, ShouldEqual, 7)
			})
		})

		Convey("When the store is empty", func() {
			deps.latestErr = repository.ErrEmpty
			resp, err := http.Get(srv.URL + "/latest")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the endpoint answers 200 with a JSON null", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				raw, readErr := io.ReadAll(resp.Body)
				So(readErr, ShouldBeNil)
				So(strings.TrimSpace(string(raw)), ShouldEqual, "null")
			})
		})

		Convey("When querying history with a recency window", func() {
			resp, err := http.Get(srv.URL + "/api/history?minutes=30&limit=10")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the query is forwarded and records returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.lastQuery.Minutes, ShouldEqual, 30)
				So(deps.lastQuery.Limit, ShouldEqual, 10)

				var records []model.Record
				So(json.NewDecoder(resp.Body).Decode(&records), ShouldBeNil)
				So(len(records), ShouldEqual, 2)
				So(records[0].ID, ShouldEqual, 2)
			})
		})

		Convey("When querying history with an explicit range", func() {
			resp, err := http.Get(srv.URL + "/api/history?start=2026-03-14T11:00:00&end=2026-03-14T13:00:00")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.lastQuery.Start.IsZero(), ShouldBeFalse)
			So(deps.lastQuery.End.IsZero(), ShouldBeFalse)
		})

		Convey("When the minutes parameter is garbage", func() {
			resp, err := http.Get(srv.URL + "/api/history?minutes=soon")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When exporting CSV", func() {
			resp, err := http.Get(srv.URL + "/api/history/csv?minutes=60")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the response is a CSV attachment", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("Content-Type"), ShouldStartWith, "text/csv")
				So(resp.Header.Get("Content-Disposition"), ShouldContainSubstring, "attachment")

				body, err := io.ReadAll(resp.Body)
				So(err, ShouldBeNil)
				So(string(body), ShouldStartWith, "created_at,moisture")
			})
		})
	})
}

func TestThresholdEndpoints(t *testing.T) {
	Convey("Given the HTTP API over a scripted pipeline", t, func() {
		deps := &fakeDeps{
			entries: []thresholds.Entry{
				{Name: "tilt_danger", Value: 8.0},
				{Name: "tilt_normal", Value: 6.0},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When listing thresholds", func() {
			resp, err := http.Get(srv.URL + "/config/api/thresholds")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then all entries are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var entries []thresholds.Entry
				So(json.NewDecoder(resp.Body).Decode(&entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
			})
		})

		Convey("When upserting a threshold", func() {
			resp, err := http.Post(srv.URL+"/config/api/thresholds", "application/json",
				strings.NewReader(`{"name":"tilt_danger","value":9.5}`))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the new entry is echoed back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.upserted["tilt_danger"], ShouldEqual, 9.5)

				var entry thresholds.Entry
				So(json.NewDecoder(resp.Body).Decode(&entry), ShouldBeNil)
				So(entry.Value, ShouldEqual, 9.5)
			})
		})

		Convey("When the upsert body is missing a value", func() {
			resp, err := http.Post(srv.URL+"/config/api/thresholds", "application/json",
				strings.NewReader(`{"name":"tilt_danger"}`))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given the HTTP API", t, func() {
		srv := newTestServer(&fakeDeps{})
		defer srv.Close()

		Convey("When probing liveness", func() {
			resp, err := http.Get(srv.URL + "/health")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it acks with ok", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body map[string]string
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
			})
		})

		Convey("When scraping metrics", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When fetching stats", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
