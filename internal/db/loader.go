package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"mystops/internal/stops"
)

const DefaultBatchSize = 100

// LoadMetrics receives per-table load outcomes.
type LoadMetrics interface {
	RowsLoaded(table string, n int)
	ReferencesSkipped(table string, n int)
}

type Loader struct {
	db        *sql.DB
	batchSize int
	metrics   LoadMetrics
}

func NewLoader(db *sql.DB, batchSize int, m LoadMetrics) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{db: db, batchSize: batchSize, metrics: m}
}

// MissingReference is a stop-route association that could not be loaded
// because its stop or route row does not exist.
type MissingReference struct {
	StopID    int
	RouteID   int
	Direction stops.Direction
	Missing   string // "stop" or "route"
}

func (m MissingReference) String() string {
	return fmt.Sprintf("stop %d route %d (%s): %s not found", m.StopID, m.RouteID, m.Direction, m.Missing)
}

type StopRouteResult struct {
	Loaded  int
	Missing []MissingReference
}

// batch renders multi-row INSERT statements. Each %s in row is replaced by
// the next positional parameter.
type batch struct {
	table    string
	columns  []string
	row      string
	conflict string
}

func (b batch) params() int { return strings.Count(b.row, "%s") }

func (b batch) statement(rows int) string {
	per := b.params()
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", b.table, strings.Join(b.columns, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		ph := make([]any, per)
		for i := range ph {
			ph[i] = fmt.Sprintf("$%d", n)
			n++
		}
		fmt.Fprintf(&sb, b.row, ph...)
	}
	if b.conflict != "" {
		sb.WriteString(" ")
		sb.WriteString(b.conflict)
	}
	return sb.String()
}

var (
	stopBatch = batch{
		table:   "stop",
		columns: []string{"stop_id", "name", "direction", "location"},
		row:     "(%s, %s, %s, ST_SetSRID(ST_MakePoint(%s, %s), 4326))",
		conflict: "ON CONFLICT (stop_id) DO UPDATE SET name = EXCLUDED.name, direction = EXCLUDED.direction, " +
			"location = EXCLUDED.location, updated_at = now()",
	}
	routeBatch = batch{
		table:   "route",
		columns: []string{"route_id", "direction", "type", "name", "short_name", "description"},
		row:     "(%s, %s, %s, %s, %s, %s)",
		conflict: "ON CONFLICT (route_id, direction) DO UPDATE SET type = EXCLUDED.type, name = EXCLUDED.name, " +
			"short_name = EXCLUDED.short_name, description = EXCLUDED.description, updated_at = now()",
	}
	stopRouteBatch = batch{
		table:    "stop_route",
		columns:  []string{"stop_id", "route_id"},
		row:      "(%s, %s)",
		conflict: "ON CONFLICT (stop_id, route_id) DO NOTHING",
	}
)

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func stopArgs(s stops.Stop) []any {
	var dir any
	if s.Direction != nil {
		dir = *s.Direction
	}
	return []any{s.ID, s.Name, dir, s.Location[0], s.Location[1]}
}

func routeArgs(r stops.Route) []any {
	return []any{r.ID, string(r.Direction), string(r.Type), r.Name, r.ShortName, r.Description}
}

// LoadStops upserts stops. With clear set the table is emptied first,
// which also removes every stop_route row.
func (l *Loader) LoadStops(ctx context.Context, items []stops.Stop, clear bool) (int, error) {
	return load(ctx, l, stopBatch, items, clear, stopArgs)
}

// LoadRoutes upserts routes keyed by (route_id, direction).
func (l *Loader) LoadRoutes(ctx context.Context, items []stops.Route, clear bool) (int, error) {
	return load(ctx, l, routeBatch, items, clear, routeArgs)
}

// load writes items in chunks of batchSize. Each chunk is its own
// statement, so chunks written before a failure stay committed and the
// returned count covers only those.
func load[T any](ctx context.Context, l *Loader, b batch, items []T, clear bool, args func(T) []any) (int, error) {
	if clear {
		if _, err := l.db.ExecContext(ctx, "DELETE FROM "+b.table); err != nil {
			return 0, fmt.Errorf("clear %s: %w", b.table, err)
		}
		log.Printf("cleared %s", b.table)
	}

	loaded := 0
	defer func() {
		if l.metrics != nil && loaded > 0 {
			l.metrics.RowsLoaded(b.table, loaded)
		}
	}()
	for i, chunk := range chunks(items, l.batchSize) {
		params := make([]any, 0, len(chunk)*b.params())
		for _, it := range chunk {
			params = append(params, args(it)...)
		}
		if _, err := l.db.ExecContext(ctx, b.statement(len(chunk)), params...); err != nil {
			return loaded, fmt.Errorf("insert %s batch %d: %w", b.table, i+1, err)
		}
		loaded += len(chunk)
		log.Printf("%s: loaded %d/%d", b.table, loaded, len(items))
	}
	return loaded, nil
}

type routeKey struct {
	id  int
	dir stops.Direction
}

// LoadStopRoutes links stops to routes through their primary keys.
// Associations whose stop or route is not in the database are skipped and
// returned in the result. On a write error the result still reports the
// rows already written.
func (l *Loader) LoadStopRoutes(ctx context.Context, items []stops.StopRoute, clear bool) (*StopRouteResult, error) {
	stopPK, err := l.stopKeys(ctx)
	if err != nil {
		return nil, err
	}
	routePK, err := l.routeKeys(ctx)
	if err != nil {
		return nil, err
	}

	res := &StopRouteResult{}
	pairs := resolve(items, stopPK, routePK, res)
	for _, m := range res.Missing {
		log.Printf("stop_route: skipping %s", m)
	}
	if l.metrics != nil && len(res.Missing) > 0 {
		l.metrics.ReferencesSkipped(stopRouteBatch.table, len(res.Missing))
	}

	n, err := load(ctx, l, stopRouteBatch, pairs, clear, func(p [2]int) []any { return []any{p[0], p[1]} })
	res.Loaded = n
	return res, err
}

func resolve(items []stops.StopRoute, stopPK map[int]int, routePK map[routeKey]int, res *StopRouteResult) [][2]int {
	pairs := make([][2]int, 0, len(items))
	for _, sr := range items {
		sid, ok := stopPK[sr.StopID]
		if !ok {
			res.Missing = append(res.Missing, MissingReference{sr.StopID, sr.RouteID, sr.Direction, "stop"})
			continue
		}
		rid, ok := routePK[routeKey{sr.RouteID, sr.Direction}]
		if !ok {
			res.Missing = append(res.Missing, MissingReference{sr.StopID, sr.RouteID, sr.Direction, "route"})
			continue
		}
		pairs = append(pairs, [2]int{sid, rid})
	}
	return pairs
}

func (l *Loader) stopKeys(ctx context.Context) (map[int]int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, stop_id FROM stop`)
	if err != nil {
		return nil, fmt.Errorf("query stop keys: %w", err)
	}
	defer rows.Close()
	m := make(map[int]int)
	for rows.Next() {
		var pk, id int
		if err := rows.Scan(&pk, &id); err != nil {
			return nil, err
		}
		m[id] = pk
	}
	return m, rows.Err()
}

func (l *Loader) routeKeys(ctx context.Context) (map[routeKey]int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, route_id, direction FROM route`)
	if err != nil {
		return nil, fmt.Errorf("query route keys: %w", err)
	}
	defer rows.Close()
	m := make(map[routeKey]int)
	for rows.Next() {
		var pk, id int
		var dir string
		if err := rows.Scan(&pk, &id, &dir); err != nil {
			return nil, err
		}
		m[routeKey{id, stops.Direction(dir)}] = pk
	}
	return m, rows.Err()
}
