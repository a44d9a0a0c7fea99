package resourcemanager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/io-sea/wfm-engine/internal/config"
	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/stretchr/testify/require"
)

type fakeJobManager struct {
	partitions []jobmanager.Partition
}

func (f *fakeJobManager) SubmitBatch(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	return 0, nil
}
func (f *fakeJobManager) SubmitLine(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	return 0, nil
}
func (f *fakeJobManager) Cancel(context.Context, int64) error            { return nil }
func (f *fakeJobManager) GetJobState(context.Context, int64) (string, error) { return "", nil }
func (f *fakeJobManager) ListPartitions(context.Context) ([]jobmanager.Partition, error) {
	return f.partitions, nil
}
func (f *fakeJobManager) CombineForDisplay(s string) string  { return s }
func (f *fakeJobManager) CombineForStopping(s string) string { return s }
func (f *fakeJobManager) IsStopped(string) bool              { return false }

func TestNoneResourceManager_ReserveAlwaysOK(t *testing.T) {
	rm := newNoneResourceManager(&fakeJobManager{})
	ok, _, err := rm.Reserve(context.Background(), ephemeral.ReservationRequest{Name: "x"})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNoneResourceManager_FallsBackToPartitions(t *testing.T) {
	rm := newNoneResourceManager(&fakeJobManager{partitions: []jobmanager.Partition{{Name: "debug"}, {Name: "batch"}}})
	locations, err := rm.ListLocations(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"debug", "batch"}, locations)

	flavors, err := rm.ListFlavors(context.Background())
	require.NoError(t, err)
	require.Equal(t, locations, flavors)
}

func TestHTTPResourceManager_Reserve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reserve", r.URL.Path)
		var body reservationRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "MYTOKEN", body.UserSlurmToken)
		json.NewEncoder(w).Encode(reservationResponseBody{OK: false, Reason: "no capacity"})
	}))
	defer srv.Close()

	rm := newHTTPResourceManager(srv.URL, 0)
	ok, reason, err := rm.Reserve(context.Background(), ephemeral.ReservationRequest{Name: "svc", User: "alice"})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "no capacity", reason)
}

func TestHTTPResourceManager_ListLocations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/locations", r.URL.Path)
		json.NewEncoder(w).Encode([]string{"site-a", "site-b"})
	}))
	defer srv.Close()

	rm := newHTTPResourceManager(srv.URL, 0)
	locations, err := rm.ListLocations(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"site-a", "site-b"}, locations)
}

func TestNew_UnsupportedKind(t *testing.T) {
	_, err := New(config.ResourceManagerSettings{Kind: "bogus"}, &fakeJobManager{})
	require.Error(t, err)
}

func TestNew_NoneKind(t *testing.T) {
	rm, err := New(config.ResourceManagerSettings{}, &fakeJobManager{})
	require.NoError(t, err)
	require.NotNil(t, rm)
}

func TestNew_HTTPKindRequiresEndpoint(t *testing.T) {
	_, err := New(config.ResourceManagerSettings{Kind: "http"}, &fakeJobManager{})
	require.Error(t, err)
}
