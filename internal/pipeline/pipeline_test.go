package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sounding-etl/internal/adapter/filestore"
	"github.com/couchcryptid/sounding-etl/internal/domain"
	"github.com/couchcryptid/sounding-etl/internal/observability"
	"github.com/couchcryptid/sounding-etl/internal/pipeline"
)

// --- mocks ---

// mockSource serves pages keyed by request key. Unknown keys get the
// archive's "no data" page.
type mockSource struct {
	pages map[string]string
	errs  map[string]error
	calls []domain.Request
}

func (m *mockSource) Fetch(_ context.Context, req domain.Request) (string, error) {
	m.calls = append(m.calls, req)
	if err, ok := m.errs[req.Key()]; ok {
		return "", err
	}
	if p, ok := m.pages[req.Key()]; ok {
		return p, nil
	}
	return unavailablePage, nil
}

type mockPublisher struct {
	name      string
	err       error
	published []domain.Sounding
}

func (m *mockPublisher) Name() string { return m.name }

func (m *mockPublisher) Publish(_ context.Context, s domain.Sounding, _ []byte) error {
	m.published = append(m.published, s)
	return m.err
}

type failingStore struct{}

func (failingStore) Save(context.Context, domain.Sounding, []byte) (string, error) {
	return "", domain.ErrWrite
}

// --- helpers ---

const unavailablePage = "<HTML><BODY>Can't get 15420 LRBS Observations at 02Z 02 Nov 2025.</BODY></HTML>"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "domain", "testdata", name))
	require.NoError(t, err)
	return string(data)
}

func request(t *testing.T, station string, ts time.Time) domain.Request {
	t.Helper()
	req, err := domain.NewRequest(station, ts)
	require.NoError(t, err)
	return req
}

func nov2(hour int) time.Time {
	return time.Date(2025, time.November, 2, hour, 0, 0, 0, time.UTC)
}

// fetchDurationSamples returns how many fetches the duration histogram observed.
func fetchDurationSamples(t *testing.T, metrics *observability.Metrics) uint64 {
	t.Helper()
	families, err := metrics.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "sounding_etl_fetch_duration_seconds" {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatal("fetch duration histogram not registered")
	return 0
}

func newFetcher(t *testing.T, src pipeline.Source, sep domain.Separator, metrics *observability.Metrics,
	publishers ...pipeline.Publisher,
) (*pipeline.Fetcher, string) {
	t.Helper()
	dir := t.TempDir()
	store := filestore.New(dir, discardLogger())
	return pipeline.NewFetcher(src, domain.NewExtractor(domain.DefaultLayout()), store, sep,
		discardLogger(), metrics, publishers...), dir
}

// --- tests ---

func TestFetcher_Fetch_WritesFile(t *testing.T) {
	req := request(t, "15420", nov2(0))
	src := &mockSource{pages: map[string]string{req.Key(): readFixture(t, "uwyo_15420_2025110200.html")}}
	metrics := observability.NewMetricsForTesting()
	f, dir := newFetcher(t, src, domain.SeparatorComma, metrics)

	res, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)

	wantPath := filepath.Join(dir, "Bucuresti_Inmh_Banesa", "20251102_0000_15420.txt")
	assert.Equal(t, wantPath, res.Path)
	assert.Equal(t, "Bucuresti_Inmh_Banesa", res.StationName)
	assert.Equal(t, 5, res.Levels)

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "PRES,HGHT,TEMP,DWPT,RELH,MIXR,DRCT,SKNT,THTA,THTE,THTV", lines[0])
	assert.Equal(t, "hPa,m,C,C,%,g/kg,deg,knot,K,K,K", lines[1])
	assert.Equal(t, "1000.0,86.0,12.4,11.2,80,7.55,50.0,4,285.1,285.7,285.2", lines[2])

	if diff := cmp.Diff([]float64{1000, 925, 850, 700, 500}, res.Pressure); diff != "" {
		t.Fatalf("pressure mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{86, 754, 1465, 3048, 5620}, res.Height)
	assert.Equal(t, []float64{12.4, 8.6, 3.2, -6.9, -22.1}, res.Temperature)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RowsDropped))
}

func TestFetcher_Fetch_TabSeparator(t *testing.T) {
	req := request(t, "15420", nov2(0))
	src := &mockSource{pages: map[string]string{req.Key(): readFixture(t, "uwyo_15420_2025110200.html")}}
	f, _ := newFetcher(t, src, domain.SeparatorTab, observability.NewMetricsForTesting())

	res, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, "PRES\tHGHT\tTEMP\tDWPT\tRELH\tMIXR\tDRCT\tSKNT\tTHTA\tTHTE\tTHTV", first)
	assert.NotContains(t, string(data), ",")
}

func TestFetcher_Fetch_Idempotent(t *testing.T) {
	req := request(t, "15420", nov2(0))
	src := &mockSource{pages: map[string]string{req.Key(): readFixture(t, "uwyo_15420_2025110200.html")}}
	f, _ := newFetcher(t, src, domain.SeparatorComma, observability.NewMetricsForTesting())

	first, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	before, err := os.ReadFile(first.Path)
	require.NoError(t, err)

	second, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	after, err := os.ReadFile(second.Path)
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, before, after)
}

func TestFetcher_Fetch_Unavailable(t *testing.T) {
	req := request(t, "15420", nov2(2))
	metrics := observability.NewMetricsForTesting()
	f, dir := newFetcher(t, &mockSource{}, domain.SeparatorComma, metrics)

	_, err := f.Fetch(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, domain.KindUnavailable, domain.Classify(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("unavailable")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is written for a missing sounding")
}

func TestFetcher_Fetch_SourceError(t *testing.T) {
	req := request(t, "15420", nov2(0))
	src := &mockSource{errs: map[string]error{req.Key(): &domain.StatusError{StatusCode: 503, URL: "http://archive"}}}
	metrics := observability.NewMetricsForTesting()
	f, _ := newFetcher(t, src, domain.SeparatorComma, metrics)

	_, err := f.Fetch(context.Background(), req)
	require.Error(t, err)
	var statusErr *domain.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Contains(t, err.Error(), "15420-2025110200")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("error")))
	assert.Equal(t, uint64(1), fetchDurationSamples(t, metrics), "failed fetches are timed too")
}

func TestFetcher_Fetch_StoreError(t *testing.T) {
	req := request(t, "15420", nov2(0))
	src := &mockSource{pages: map[string]string{req.Key(): readFixture(t, "uwyo_15420_2025110200.html")}}
	pub := &mockPublisher{name: "kafka"}
	f := pipeline.NewFetcher(src, domain.NewExtractor(domain.DefaultLayout()), failingStore{},
		domain.SeparatorComma, discardLogger(), observability.NewMetricsForTesting(), pub)

	_, err := f.Fetch(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWrite)
	assert.Equal(t, domain.KindError, domain.Classify(err))
	assert.Empty(t, pub.published, "nothing is published when the file was not written")
}

func TestFetcher_Fetch_PublisherFailureIsNotFatal(t *testing.T) {
	req := request(t, "15420", nov2(0))
	src := &mockSource{pages: map[string]string{req.Key(): readFixture(t, "uwyo_15420_2025110200.html")}}
	metrics := observability.NewMetricsForTesting()
	broken := &mockPublisher{name: "s3", err: errors.New("access denied")}
	healthy := &mockPublisher{name: "kafka"}
	f, _ := newFetcher(t, src, domain.SeparatorComma, metrics, broken, healthy)

	res, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.FileExists(t, res.Path)

	require.Len(t, healthy.published, 1)
	assert.Equal(t, "Bucuresti_Inmh_Banesa", healthy.published[0].StationName)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("s3")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("kafka")))
}

func TestFetcher_Fetch_NoStationName(t *testing.T) {
	fixture := readFixture(t, "uwyo_15420_2025110200.html")
	noHeader := strings.Replace(fixture,
		"<H2>15420 LRBS Bucuresti Inmh-Banesa Observations at 00Z 02 Nov 2025</H2>", "", 1)
	req := request(t, "15420", nov2(0))
	src := &mockSource{pages: map[string]string{req.Key(): noHeader}}
	f, dir := newFetcher(t, src, domain.SeparatorComma, observability.NewMetricsForTesting())

	res, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "15420", "20251102_0000_15420.txt"), res.Path)
	assert.Equal(t, "15420", res.StationName)
}
