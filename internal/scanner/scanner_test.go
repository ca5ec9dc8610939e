package scanner

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"gopkg.in/guregu/null.v3"

	"httpobs/internal/output"
	"httpobs/internal/retriever"
	"httpobs/internal/site"
)

type fakeStore struct {
	mu           sync.Mutex
	saved        []string
	recent       *output.ScanReport
	expectations map[string]string
}

func (f *fakeStore) SaveScan(_ context.Context, siteKey string, _ *output.ScanReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, siteKey)
	return nil
}

func (f *fakeStore) RecentScan(_ context.Context, _ string, _ time.Duration) (*output.ScanReport, error) {
	return f.recent, nil
}

func (f *fakeStore) Expectations(_ context.Context, _ string) (map[string]string, error) {
	return f.expectations, nil
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func localResolver() *site.Resolver {
	return &site.Resolver{
		AllowPrivateTargets: true,
		LookupIPAddr: func(_ context.Context, _ string) ([]net.IPAddr, error) {
			return []net.IPAddr{{IP: net.ParseIP("127.0.0.1")}}, nil
		},
	}
}

func testRetriever(t *testing.T) *retriever.Retriever {
	t.Helper()
	opts := retriever.DefaultOptions()
	opts.InsecureSkipVerify = true
	opts.PerHostRate = 1000
	opts.RequestTimeout = 5 * time.Second
	opts.ScanTimeout = 15 * time.Second
	r := retriever.New(opts, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func siteFor(t *testing.T, server *httptest.Server) site.Site {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return site.Site{Host: u.Hostname(), Port: port}
}

func TestScanEndToEnd(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	store := &fakeStore{}
	s := New(testRetriever(t), localResolver(), store, nil, nil)

	report := s.Scan(context.Background(), siteFor(t, server))

	if report.Error != "" {
		t.Fatalf("unexpected scan error %q", report.Error)
	}
	if !report.Grade.Valid || !report.Score.Valid {
		t.Fatal("grade and score should be set")
	}
	if report.StatusCode != 200 {
		t.Errorf("status = %d, want 200", report.StatusCode)
	}
	if len(report.Tests) != 10 {
		t.Errorf("tests = %d, want 10", len(report.Tests))
	}
	if report.TestsPassed+report.TestsFailed != report.TestsQuantity {
		t.Errorf("counts inconsistent: %d+%d != %d",
			report.TestsPassed, report.TestsFailed, report.TestsQuantity)
	}
	if report.ResponseHeaders["x-content-type-options"] != "nosniff" {
		t.Errorf("response headers not lowercased: %v", report.ResponseHeaders)
	}
	if report.Fingerprint == nil || report.Fingerprint.BodyMMH3 == "" {
		t.Error("fingerprint missing")
	}
	if store.saveCount() != 1 {
		t.Errorf("saved %d scans, want 1", store.saveCount())
	}
	for _, stamp := range []string{report.StartTime, report.EndTime} {
		if _, err := time.Parse(time.RFC3339, stamp); err != nil {
			t.Errorf("timestamp not RFC 3339: %q", stamp)
		}
	}
}

func TestScanAppliesExpectationOverrides(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	store := &fakeStore{expectations: map[string]string{
		"x-content-type-options": "x-content-type-options-nosniff",
		"redirection":            "redirection-not-needed-no-http",
	}}
	s := New(testRetriever(t), localResolver(), store, nil, nil)

	report := s.Scan(context.Background(), siteFor(t, server))

	xcto := report.Tests["x-content-type-options"]
	if xcto.Expectation != "x-content-type-options-nosniff" {
		t.Errorf("override not recorded: %q", xcto.Expectation)
	}
	if xcto.Pass {
		t.Error("missing header should fail the overridden expectation")
	}
}

func TestScanConnectionError(t *testing.T) {
	// A listener that is immediately closed gives a port nothing accepts on.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	store := &fakeStore{}
	s := New(testRetriever(t), localResolver(), store, nil, nil)

	report := s.Scan(context.Background(), site.Site{Host: "127.0.0.1", Port: port})

	if report.Error != retriever.ErrConnection {
		t.Fatalf("error = %q, want %q", report.Error, retriever.ErrConnection)
	}
	if report.Grade.Valid || report.Score.Valid {
		t.Error("failed scan should have null grade and score")
	}
	if len(report.Tests) != 0 {
		t.Errorf("failed scan carries %d test results", len(report.Tests))
	}
	if store.saveCount() != 1 {
		t.Errorf("failed scan should still be persisted, saved %d", store.saveCount())
	}
}

func TestScanCancelledNotPersisted(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	s := New(testRetriever(t), localResolver(), store, nil, nil)

	report := s.Scan(ctx, siteFor(t, server))

	if report.Error != retriever.ErrScanCancelled {
		t.Fatalf("error = %q, want %q", report.Error, retriever.ErrScanCancelled)
	}
	if store.saveCount() != 0 {
		t.Errorf("cancelled scan persisted %d times", store.saveCount())
	}
}

func TestScanCachedServesRecent(t *testing.T) {
	cached := &output.ScanReport{AlgorithmVersion: 5}
	store := &fakeStore{recent: cached}

	// Point the scanner at nothing routable; the cache must answer first.
	s := New(testRetriever(t), localResolver(), store, nil, nil)

	report, err := s.ScanCached(context.Background(), site.Site{Host: "example.com"}, DefaultCooldown)
	if err != nil {
		t.Fatalf("ScanCached: %v", err)
	}
	if report == cached {
		t.Error("caller must receive its own copy of the stored report")
	}
	if report.AlgorithmVersion != cached.AlgorithmVersion {
		t.Error("stored report content lost")
	}
	if store.saveCount() != 0 {
		t.Error("cache hit should not persist anything")
	}
}

func TestScanCachedSingleFlight(t *testing.T) {
	var mu sync.Mutex
	rootHits := 0
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			mu.Lock()
			rootHits++
			mu.Unlock()
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := New(testRetriever(t), localResolver(), &fakeStore{}, nil, nil)
	target := siteFor(t, server)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.ScanCached(context.Background(), target, 0); err != nil {
				t.Errorf("ScanCached: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if rootHits != 1 {
		t.Errorf("root fetched %d times, want 1 shared scan", rootHits)
	}
}

func TestScanCachedHandsOutCopies(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			time.Sleep(200 * time.Millisecond)
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := New(testRetriever(t), localResolver(), &fakeStore{}, nil, nil)
	target := siteFor(t, server)

	const callers = 4
	reports := make([]*output.ScanReport, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			report, err := s.ScanCached(context.Background(), target, 0)
			if err != nil {
				t.Errorf("ScanCached: %v", err)
				return
			}
			reports[i] = report
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < callers; i++ {
		if reports[i] == nil {
			t.Fatal("missing report")
		}
		if reports[i] == reports[0] {
			t.Fatal("coalesced callers share one report")
		}
	}

	// Mutations on one caller's copy must not leak into another's.
	reports[0].StripScoreDescriptions()
	delete(reports[0].Tests, "redirection")
	for i := 1; i < callers; i++ {
		if _, ok := reports[i].Tests["redirection"]; !ok {
			t.Errorf("caller %d lost a test result to another caller's mutation", i)
		}
	}
}

func TestScanCachedFullDetailsRefreshesTests(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	// The stored scan is a summary with no test output, as the database
	// reconstructs them.
	summary := &output.ScanReport{
		AlgorithmVersion: 5,
		Grade:            null.StringFrom("A+"),
		Score:            null.IntFrom(105),
		Tests:            map[string]output.TestResult{},
	}
	store := &fakeStore{recent: summary}
	s := New(testRetriever(t), localResolver(), store, nil, nil)

	report, tests, err := s.ScanCachedFullDetails(context.Background(), siteFor(t, server), DefaultCooldown)
	if err != nil {
		t.Fatalf("ScanCachedFullDetails: %v", err)
	}
	if report.Score.Int64 != 105 {
		t.Errorf("score = %d, want the stored summary", report.Score.Int64)
	}
	if len(tests) != 10 {
		t.Errorf("tests = %d, want a full battery from the in-memory rescan", len(tests))
	}
	if store.saveCount() != 0 {
		t.Errorf("detail rescan persisted %d scans, want 0", store.saveCount())
	}
}

func TestScanBatch(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	hostPort := "localhost:" + u.Port()

	s := New(testRetriever(t), localResolver(), &fakeStore{}, nil, nil)

	entries, err := s.ScanBatch(context.Background(),
		[]string{hostPort, "https://" + hostPort, "bad host"}, 0)
	if err != nil {
		t.Fatalf("ScanBatch: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	if !entries[0].Success || !entries[1].Success {
		t.Errorf("duplicate hostnames should both succeed: %+v %+v", entries[0], entries[1])
	}
	if entries[0].Report != entries[1].Report {
		t.Error("duplicate hostnames should share one scan")
	}
	if len(entries[0].Tests) != 10 {
		t.Errorf("entry tests = %d, want the full battery", len(entries[0].Tests))
	}
	if entries[2].Success || entries[2].Error != "invalid-hostname" {
		t.Errorf("invalid hostname entry = %+v", entries[2])
	}
}

func TestScanBatchRefreshesCachedTests(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	hostPort := "localhost:" + u.Port()

	summary := &output.ScanReport{
		AlgorithmVersion: 5,
		Grade:            null.StringFrom("B"),
		Score:            null.IntFrom(70),
		Tests:            map[string]output.TestResult{},
	}
	s := New(testRetriever(t), localResolver(), &fakeStore{recent: summary}, nil, nil)

	entries, err := s.ScanBatch(context.Background(), []string{hostPort}, DefaultCooldown)
	if err != nil {
		t.Fatalf("ScanBatch: %v", err)
	}
	if !entries[0].Success {
		t.Fatalf("entry = %+v", entries[0])
	}
	if entries[0].Report.Score.Int64 != 70 {
		t.Errorf("score = %d, want the stored summary", entries[0].Report.Score.Int64)
	}
	if len(entries[0].Tests) != 10 {
		t.Errorf("entry tests = %d, want a full battery from the in-memory rescan", len(entries[0].Tests))
	}
}

func TestScanBatchTooLarge(t *testing.T) {
	s := New(testRetriever(t), localResolver(), nil, nil, nil)
	hostnames := make([]string, MaxBatchSize+1)
	for i := range hostnames {
		hostnames[i] = "example.com"
	}
	if _, err := s.ScanBatch(context.Background(), hostnames, 0); err == nil {
		t.Fatal("expected batch size error")
	}
}
