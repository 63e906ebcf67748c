package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

// recordingDB is an in-memory database/sql backend that records every
// statement. Exec number failAt (1-based) fails; 0 never fails.
type recordingDB struct {
	mu     sync.Mutex
	execs  []string
	args   [][]driver.Value
	failAt int
	begins int

	stopRows  [][]driver.Value // id, stop_id
	routeRows [][]driver.Value // id, route_id, direction
}

func openRecording(t *testing.T, rec *recordingDB) *sql.DB {
	t.Helper()
	sqlDB := sql.OpenDB(recordingConnector{rec})
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

type recordingConnector struct{ rec *recordingDB }

func (c recordingConnector) Connect(context.Context) (driver.Conn, error) {
	return &recordingConn{rec: c.rec}, nil
}

func (c recordingConnector) Driver() driver.Driver { return recordingDriver{c.rec} }

type recordingDriver struct{ rec *recordingDB }

func (d recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{rec: d.rec}, nil }

type recordingConn struct{ rec *recordingDB }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	c.rec.mu.Lock()
	c.rec.begins++
	c.rec.mu.Unlock()
	return nil, errors.New("transactions not supported")
}

func (c *recordingConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	r := c.rec
	r.mu.Lock()
	defer r.mu.Unlock()
	vals := make([]driver.Value, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	r.execs = append(r.execs, query)
	r.args = append(r.args, vals)
	if len(r.execs) == r.failAt {
		return nil, fmt.Errorf("exec %d failed", r.failAt)
	}
	return driver.RowsAffected(0), nil
}

func (c *recordingConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	r := c.rec
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case strings.HasSuffix(query, "FROM stop"):
		return &memRows{cols: []string{"id", "stop_id"}, data: r.stopRows}, nil
	case strings.HasSuffix(query, "FROM route"):
		return &memRows{cols: []string{"id", "route_id", "direction"}, data: r.routeRows}, nil
	}
	return nil, fmt.Errorf("unexpected query %q", query)
}

type memRows struct {
	cols []string
	data [][]driver.Value
	pos  int
}

func (m *memRows) Columns() []string { return m.cols }
func (m *memRows) Close() error      { return nil }

func (m *memRows) Next(dest []driver.Value) error {
	if m.pos >= len(m.data) {
		return io.EOF
	}
	copy(dest, m.data[m.pos])
	m.pos++
	return nil
}
