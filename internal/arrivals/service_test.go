package arrivals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mystops/internal/trimet"
)

type fakeFetcher struct {
	body []byte
	err  error
	got  []int
}

func (f *fakeFetcher) Arrivals(_ context.Context, stopIDs []int) ([]byte, error) {
	f.got = stopIDs
	return f.body, f.err
}

type fakeMetrics struct {
	included, dropped int
	failures          []string
}

func (m *fakeMetrics) BoardComputed(included, dropped int) {
	m.included += included
	m.dropped += dropped
}

func (m *fakeMetrics) BoardFailed(kind string) { m.failures = append(m.failures, kind) }

func TestServiceBoard(t *testing.T) {
	clock, now := testClock(t)
	f := &fakeFetcher{body: payload(t, trimet.ArrivalsResultSet{
		QueryTime: now.UnixMilli(),
		Locations: []trimet.ArrivalLocation{{ID: 100, Desc: "Stop"}},
		Arrivals: []trimet.RawArrival{
			{Route: 1, LocID: 100, FullSign: "1 Vermont", Status: "scheduled", Scheduled: in(now, time.Minute)},
			{Route: 1, LocID: 100, FullSign: "1 Vermont"},
		},
	})}
	m := &fakeMetrics{}

	board, err := NewService(f, NewNormalizer(clock), m).Board(context.Background(), []int{100}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, f.got)
	assert.Equal(t, 1, board.Count)
	assert.Equal(t, 1, m.included)
	assert.Equal(t, 1, m.dropped)
	assert.Empty(t, m.failures)
}

func TestServiceBoardErrors(t *testing.T) {
	clock, _ := testClock(t)

	tests := []struct {
		name string
		f    *fakeFetcher
		kind string
	}{
		{"upstream", &fakeFetcher{err: &trimet.UpstreamError{Service: "arrivals", StatusCode: 500}}, "upstream"},
		{"stop not found", &fakeFetcher{body: []byte(`{"resultSet":{"error":{"content":"Location id not found: 1"}}}`)}, "stop_not_found"},
		{"api", &fakeFetcher{body: []byte(`{"resultSet":{"error":{"content":"boom"}}}`)}, "api"},
		{"decode", &fakeFetcher{body: []byte(`[`)}, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMetrics{}
			board, err := NewService(tt.f, NewNormalizer(clock), m).Board(context.Background(), []int{1}, nil)
			require.Error(t, err)
			assert.Nil(t, board)
			assert.Equal(t, []string{tt.kind}, m.failures)
		})
	}
}

func TestErrorKindWrapped(t *testing.T) {
	err := errors.Join(errors.New("context"), &trimet.StopNotFoundError{StopID: "7"})
	assert.Equal(t, "stop_not_found", ErrorKind(err))
}
