package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"HydroFlow/internal/domain/models"
	domrepo "HydroFlow/internal/domain/repository"
	"HydroFlow/internal/service/broker"
	"HydroFlow/internal/services/trading"
	"HydroFlow/internal/usecase"
	xhttp "HydroFlow/pkg/http"
	xlogger "HydroFlow/pkg/logger"
)

type stubFeed struct{ up bool }

func (f stubFeed) IsConnected() bool { return f.up }

type stubHealth struct{ err error }

func (h stubHealth) Health(context.Context) error { return h.err }

type stubSnapshots struct{ snaps map[string]models.Snapshot }

func (s stubSnapshots) Save(context.Context, models.Snapshot) error { return nil }

func (s stubSnapshots) Load(_ context.Context, symbol string) (models.Snapshot, error) {
	snap, ok := s.snaps[symbol]
	if !ok {
		return models.Snapshot{}, domrepo.ErrSnapshotNotFound
	}
	return snap, nil
}

type stubBars struct {
	from, to time.Time
	bars     []models.Bar
}

func (s *stubBars) LoadBars(_ context.Context, _ string, from, to time.Time, _ int) ([]models.Bar, error) {
	s.from, s.to = from, to
	return s.bars, nil
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestEcho(t *testing.T, h *EngineEchoHandler) *echo.Echo {
	t.Helper()
	return xhttp.NewServer(h, xlogger.NewNop()).Echo()
}

func testEngines() usecase.Engines {
	paper := broker.NewPaper(broker.Config{
		Balance: 10_000,
		Symbols: []models.SymbolInfo{{Name: "EURUSD", PipSize: 0.0001, PipValue: 0.0001, VolumeMin: 1000, VolumeMax: 1e6, VolumeStep: 1000}},
	})
	return usecase.NewEngines(usecase.NewEngine("EURUSD", trading.DefaultParams(), paper, paper))
}

func do(t *testing.T, e *echo.Echo, target string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v (%s)", target, err, rec.Body.String())
	}
	if env.Status != rec.Code {
		t.Fatalf("%s: body status %d != http status %d", target, env.Status, rec.Code)
	}
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		feed    FeedStatus
		journal HealthChecker
		want    models.Health
	}{
		{"standalone", nil, nil, models.Health{Status: "ok", Journal: "disabled"}},
		{"feed down", stubFeed{up: false}, nil, models.Health{Status: "degraded", Journal: "disabled"}},
		{"journal down", stubFeed{up: true}, stubHealth{err: errors.New("dial")}, models.Health{Status: "degraded", FeedConnected: true, Journal: "down"}},
		{"all up", stubFeed{up: true}, stubHealth{}, models.Health{Status: "ok", FeedConnected: true, Journal: "up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEngineEchoHandler(xlogger.NewNop(), testEngines(), nil, nil, tt.feed, tt.journal, domrepo.TF1h)
			code, env := do(t, newTestEcho(t, h), "/api/health")
			if code != http.StatusOK {
				t.Fatalf("code = %d", code)
			}
			var got models.Health
			if err := json.Unmarshal(env.Data, &got); err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("health = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestState(t *testing.T) {
	stored := stubSnapshots{snaps: map[string]models.Snapshot{"GBPUSD": {Symbol: "GBPUSD", BarIndex: 41}}}
	h := NewEngineEchoHandler(xlogger.NewNop(), testEngines(), stored, nil, nil, nil, domrepo.TF1h)
	e := newTestEcho(t, h)

	code, env := do(t, e, "/api/state?symbol=EURUSD")
	if code != http.StatusOK {
		t.Fatalf("live state code = %d", code)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Symbol != "EURUSD" || snap.BarIndex != -1 {
		t.Fatalf("live snapshot = %+v", snap)
	}

	code, env = do(t, e, "/api/state?symbol=GBPUSD")
	if code != http.StatusOK {
		t.Fatalf("stored state code = %d", code)
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.BarIndex != 41 {
		t.Fatalf("stored snapshot = %+v", snap)
	}

	if code, _ := do(t, e, "/api/state?symbol=USDJPY"); code != http.StatusNotFound {
		t.Fatalf("unknown symbol code = %d", code)
	}
	if code, _ := do(t, e, "/api/state"); code != http.StatusBadRequest {
		t.Fatalf("missing symbol code = %d", code)
	}
}

func TestTradesAndPerformance(t *testing.T) {
	h := NewEngineEchoHandler(xlogger.NewNop(), testEngines(), nil, nil, nil, nil, domrepo.TF1h)
	e := newTestEcho(t, h)

	_, env := do(t, e, "/api/trades")
	var list struct {
		Rows  []models.OpenTrade `json:"rows"`
		Total int64              `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 0 || len(list.Rows) != 0 {
		t.Fatalf("trades = %+v", list)
	}

	_, env = do(t, e, "/api/performance")
	var perf map[string]models.Performance
	if err := json.Unmarshal(env.Data, &perf); err != nil {
		t.Fatal(err)
	}
	if _, ok := perf["EURUSD"]; !ok || len(perf) != 1 {
		t.Fatalf("performance = %+v", perf)
	}
}

func TestBars(t *testing.T) {
	noSource := newTestEcho(t, NewEngineEchoHandler(xlogger.NewNop(), testEngines(), nil, nil, nil, nil, domrepo.TF1h))
	if code, _ := do(t, noSource, "/api/bars?symbol=EURUSD"); code != http.StatusServiceUnavailable {
		t.Fatalf("no source code = %d", code)
	}

	src := &stubBars{bars: []models.Bar{{Time: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Close: 1.1}}}
	e := newTestEcho(t, NewEngineEchoHandler(xlogger.NewNop(), testEngines(), nil, src, nil, nil, domrepo.TF1h))

	code, env := do(t, e, "/api/bars?symbol=EURUSD&from=2024-01-01T10:20:00Z&to=2024-01-01T12:10:00Z")
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if !src.from.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("from not aligned to the hour: %v", src.from)
	}
	var list struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil || list.Total != 1 {
		t.Fatalf("list = %+v err=%v", list, err)
	}

	if code, _ := do(t, e, "/api/bars?symbol=EURUSD&from=2024-01-02T00:00:00Z&to=2024-01-01T00:00:00Z"); code != http.StatusBadRequest {
		t.Fatalf("inverted window code = %d", code)
	}
	if code, _ := do(t, e, "/api/bars?symbol=EURUSD&limit=20000"); code != http.StatusBadRequest {
		t.Fatalf("limit above max code = %d", code)
	}
}
