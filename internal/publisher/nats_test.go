package publisher

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mystops/internal/arrivals"
)

type sent struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs    []sent
	failOn  string
	drained bool
	closed  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if subject == f.failOn {
		return errors.New("nats: connection closed")
	}
	f.msgs = append(f.msgs, sent{subject, data})
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

type fakeMetrics struct{ published, errs, observed int }

func (m *fakeMetrics) NATSPublishedInc()              { m.published++ }
func (m *fakeMetrics) NATSPublishErrInc()             { m.errs++ }
func (m *fakeMetrics) PublishObserve(_ time.Duration) { m.observed++ }
func (m *fakeMetrics) NATSSetConnected(_ bool)        {}

func board() *arrivals.Board {
	return &arrivals.Board{
		Count:      1,
		UpdateTime: "3:04:05 p.m.",
		Stops: []arrivals.Stop{
			{ID: 13, Name: "Gateway TC", Routes: []arrivals.Route{{ID: 100, Name: "MAX Blue Line to Hillsboro"}}},
			{ID: 9000, Name: "SE 82nd"},
		},
	}
}

func TestPublishBoard(t *testing.T) {
	conn := &fakeConn{}
	m := &fakeMetrics{}
	p := newPublisher(conn, "", false, m)

	require.NoError(t, p.PublishBoard(board()))
	require.Len(t, conn.msgs, 2)
	assert.Equal(t, "arrivals.13", conn.msgs[0].subject)
	assert.Equal(t, "arrivals.9000", conn.msgs[1].subject)

	var msg StopMessage
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &msg))
	assert.Equal(t, "3:04:05 p.m.", msg.UpdateTime)
	assert.Equal(t, 13, msg.Stop.ID)
	assert.Equal(t, "MAX Blue Line to Hillsboro", msg.Stop.Routes[0].Name)

	assert.Equal(t, 2, m.published)
	assert.Equal(t, 2, m.observed)
}

func TestPublishBoardContinuesAfterError(t *testing.T) {
	conn := &fakeConn{failOn: "trimet.13"}
	m := &fakeMetrics{}
	p := newPublisher(conn, "trimet", true, m)

	err := p.PublishBoard(board())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish stop 13")
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "trimet.9000", conn.msgs[0].subject)
	assert.Equal(t, 1, m.errs)
	assert.Equal(t, 1, m.published)
}

func TestClose(t *testing.T) {
	conn := &fakeConn{}
	newPublisher(conn, "x", false, nil).Close()
	assert.True(t, conn.drained)
	assert.True(t, conn.closed)
}

func TestSubjectToken(t *testing.T) {
	assert.Equal(t, "my_stops", subjectToken(" my stops "))
	assert.Equal(t, "a_b_c_d", subjectToken("a.b>c*d"))
	assert.Equal(t, "_", subjectToken("  "))

	p := newPublisher(&fakeConn{}, "board.v1", false, nil)
	assert.Equal(t, "board_v1.42", p.Subject(42))
}
