package pgconn

import (
	"context"
	"time"

	"github.com/mevdschee/pgwire/metrics"
	"github.com/mevdschee/pgwire/pgerror"
	"github.com/mevdschee/pgwire/params"
	"github.com/mevdschee/pgwire/pgproto"
	"github.com/mevdschee/pgwire/stats"
)

// Execute runs sql (after substituting params, if any) and returns the
// first bundle of the resulting batch, per spec.md §4.4. Per DESIGN NOTES'
// open question on batch-error propagation, only the first bundle's error
// is surfaced here — ExecuteBatch exposes the full batch for callers that
// need every result set from a multi-statement query.
func (c *Conn) Execute(sql string, queryParams any) (*ResultBundle, error) {
	batch, err := c.ExecuteBatch(sql, queryParams)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, pgerror.New(pgerror.Interface, "query produced no result (empty query?)")
	}
	first := batch[0]
	if first.Error != "" {
		return nil, pgerror.New(pgerror.Database, first.Error)
	}
	return first, nil
}

// ExecuteContext behaves like Execute but honors ctx cancellation at the
// granularity the protocol allows: there is no cancel-request message (the
// extended query protocol and SSL are both non-goals), so a cancellation
// only aborts whatever read is currently blocked on the socket, by pushing
// an expired deadline onto the underlying connection. The connection is
// left unusable afterwards, same as any other read error.
func (c *Conn) ExecuteContext(ctx context.Context, sql string, queryParams any) (*ResultBundle, error) {
	if ctx.Done() != nil {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				c.netConn.SetDeadline(time.Now())
			case <-done:
			}
		}()
		defer c.netConn.SetDeadline(time.Time{})
	}
	if dl, ok := ctx.Deadline(); ok {
		c.netConn.SetDeadline(dl)
	}
	return c.Execute(sql, queryParams)
}

// ExecuteBatch runs sql and returns every result set the server produced,
// without collapsing to the first bundle's error. Requires the connection
// to be Ready (spec.md §4.4).
func (c *Conn) ExecuteBatch(sql string, queryParams any) (Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	queryType := stats.Classify(sql)
	started := time.Now()

	expanded, err := params.Expand(sql, c.registry, queryParams)
	if err != nil {
		metrics.QueryTotal.WithLabelValues(queryType.String(), "error").Inc()
		return nil, pgerror.Wrap(pgerror.Programming, err, "expanding query parameters")
	}

	c.ready = false
	c.batch = nil
	c.current = newResultBundle()

	if err := c.w.Write(pgproto.EncodeQuery(expanded)); err != nil {
		metrics.QueryTotal.WithLabelValues(queryType.String(), "error").Inc()
		return nil, err
	}

	for !c.ready {
		if err := c.readOnePacket(); err != nil {
			metrics.QueryTotal.WithLabelValues(queryType.String(), "error").Inc()
			return nil, err
		}
	}

	// startNewBundle only appends a bundle to c.batch when a completion or
	// error actually closes it, so the fresh bundle opened after the last
	// one never lands in c.batch on its own — nothing to trim here.
	batch := c.batch
	c.batch, c.current = nil, nil

	metrics.QueryLatency.WithLabelValues(queryType.String()).Observe(time.Since(started).Seconds())
	outcome := "ok"
	rows := 0
	for _, b := range batch {
		rows += len(b.Rows)
		if b.Error != "" {
			outcome = "error"
		}
	}
	metrics.QueryTotal.WithLabelValues(queryType.String(), outcome).Inc()
	metrics.RowsReturned.WithLabelValues(queryType.String()).Observe(float64(rows))

	return batch, nil
}

// Commit issues the literal COMMIT command, per spec.md §6.
func (c *Conn) Commit() error {
	_, err := c.Execute("COMMIT", nil)
	return err
}

// Rollback issues the literal ROLLBACK command, per spec.md §6.
func (c *Conn) Rollback() error {
	_, err := c.Execute("ROLLBACK", nil)
	return err
}
