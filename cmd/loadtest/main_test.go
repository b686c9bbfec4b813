package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

func withCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"loadtest"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    loadMode
		wantErr bool
	}{
		{input: "create", want: modeCreate},
		{input: " create-cancel ", want: modeCreateCancel},
		{input: "create-pay", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseMode(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseMode(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseMode(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseMode(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		withCLIArgs(t, nil, func() {
			cfg, err := parseConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.baseURL != "http://localhost:8080" {
				t.Errorf("unexpected baseURL: %s", cfg.baseURL)
			}
			if cfg.total != 400 || cfg.concurrency != 40 {
				t.Errorf("unexpected defaults: total=%d concurrency=%d", cfg.total, cfg.concurrency)
			}
			if cfg.mode != modeCreate {
				t.Errorf("unexpected mode: %s", cfg.mode)
			}
		})
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		withCLIArgs(t, []string{"-addr", "http://api.local/"}, func() {
			cfg, err := parseConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.baseURL != "http://api.local" {
				t.Errorf("unexpected baseURL: %s", cfg.baseURL)
			}
		})
	})

	t.Run("invalid values", func(t *testing.T) {
		invalid := [][]string{
			{"-total", "0"},
			{"-concurrency", "0"},
			{"-timeout", "0s"},
			{"-qty", "0"},
			{"-price", "0"},
			{"-cancel-rate", "150"},
			{"-mode", "unknown"},
		}
		for _, args := range invalid {
			withCLIArgs(t, args, func() {
				if _, err := parseConfig(); err == nil {
					t.Errorf("expected error for args %v", args)
				}
			})
		}
	})
}

func TestDispatchJobs(t *testing.T) {
	t.Run("count mode", func(t *testing.T) {
		cfg := config{total: 5}
		jobs := make(chan int, 10)

		dispatchJobs(jobs, cfg)

		var ids []int
		for id := range jobs {
			ids = append(ids, id)
		}
		if len(ids) != 5 {
			t.Errorf("expected 5 jobs, got %d", len(ids))
		}
	})

	t.Run("duration mode stops", func(t *testing.T) {
		cfg := config{duration: 50 * time.Millisecond}
		jobs := make(chan int, 1024)

		done := make(chan struct{})
		var count int
		go func() {
			defer close(done)
			for range jobs {
				count++
			}
		}()

		dispatchJobs(jobs, cfg)
		<-done
		if count == 0 {
			t.Error("expected at least one job in duration mode")
		}
	})

	t.Run("duration mode honors explicit total", func(t *testing.T) {
		cfg := config{duration: time.Minute, total: 3, totalSet: true}
		jobs := make(chan int, 10)

		dispatchJobs(jobs, cfg)

		var count int
		for range jobs {
			count++
		}
		if count != 3 {
			t.Errorf("expected exactly 3 jobs, got %d", count)
		}
	})
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record("scenario", 10*time.Millisecond, http.StatusOK)
	col.record("scenario", 20*time.Millisecond, http.StatusConflict)
	col.record("CreateOrder", 5*time.Millisecond, http.StatusCreated)
	col.record("CreateOrder", 7*time.Millisecond, 0)

	result := col.buildReport(time.Now(), 2*time.Second)

	if result.TotalScenarios != 2 || result.SuccessScenarios != 1 || result.FailedScenarios != 1 {
		t.Errorf("unexpected scenario counts: %+v", result)
	}
	if result.ErrorRate != 0.5 {
		t.Errorf("expected error rate 0.5, got %f", result.ErrorRate)
	}
	if result.RPS != 1 {
		t.Errorf("expected rps 1, got %f", result.RPS)
	}

	create := result.Methods["CreateOrder"]
	if create.Calls != 2 || create.Success != 1 || create.Failed != 1 {
		t.Errorf("unexpected CreateOrder stats: %+v", create)
	}
	if create.Codes["transport_error"] != 1 || create.Codes["201"] != 1 {
		t.Errorf("unexpected codes: %v", create.Codes)
	}
}

func TestPercentileAndSummary(t *testing.T) {
	if got := percentile(nil, 95); got != 0 {
		t.Errorf("empty percentile = %f, want 0", got)
	}
	if got := percentile([]float64{7}, 99); got != 7 {
		t.Errorf("single percentile = %f, want 7", got)
	}

	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(sorted, 50); got != 5.5 {
		t.Errorf("p50 = %f, want 5.5", got)
	}

	summary := buildLatencySummary([]float64{3, 1, 2})
	if summary.Min != 1 || summary.Max != 3 || summary.Avg != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if ratio(1, 4) != 0.25 || ratio(1, 0) != 0 {
		t.Error("unexpected ratio results")
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := writeJSONReport(path, report{TotalScenarios: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 7 {
		t.Errorf("expected 7 scenarios, got %d", decoded.TotalScenarios)
	}

	if err := writeJSONReport(".", report{}); err == nil {
		t.Error("expected error for directory path")
	}
	if err := writeJSONReport("../escape.json", report{}); err == nil {
		t.Error("expected error for path outside current directory")
	}
}

// fakeAPI эмулирует минимальную часть API магазина для сценариев нагрузки.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	var mu sync.Mutex
	orderSeq := 0

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/customers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"customer": map[string]any{"id": "cust-1"}})
	})
	mux.HandleFunc("POST /api/books", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"book": map[string]any{"id": "book-1"}})
	})
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(idempotencyHeader) == "" {
			t.Error("expected idempotency key on order creation")
		}
		mu.Lock()
		orderSeq++
		id := orderSeq
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"order": map[string]any{"id": "order-" + strconv.Itoa(id)}})
	})
	mux.HandleFunc("PATCH /api/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "ok"})
	})

	return httptest.NewServer(mux)
}

func TestRunScenarioAgainstFakeAPI(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	client := srv.Client()
	cfg := config{
		baseURL:    srv.URL,
		mode:       modeCreateCancel,
		cancelRate: 100,
		qty:        1,
		price:      9.99,
		stock:      100,
		timeout:    2 * time.Second,
	}

	seed, err := seedCatalog(client, cfg, "test-run")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seed.customerID != "cust-1" || seed.bookID != "book-1" {
		t.Fatalf("unexpected seed: %+v", seed)
	}

	col := newCollector()
	if err := runScenario(client, cfg, seed, 0, "test-run", col); err != nil {
		t.Fatalf("scenario: %v", err)
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.Methods["CreateOrder"].Success != 1 {
		t.Errorf("expected one successful create, got %+v", result.Methods["CreateOrder"])
	}
	if result.Methods["CancelOrder"].Success != 1 {
		t.Errorf("expected one successful cancel, got %+v", result.Methods["CancelOrder"])
	}
	if result.SuccessScenarios != 1 {
		t.Errorf("expected one successful scenario, got %+v", result)
	}
}
