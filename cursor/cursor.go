// Package cursor provides a DB-API-style buffered fetch cursor over a
// pgconn result bundle, mirroring the original driver's Cursor class.
package cursor

import (
	"github.com/mevdschee/pgwire/pgconn"
	"github.com/mevdschee/pgwire/pgerror"
)

// ScrollMode selects how Scroll interprets its offset argument.
type ScrollMode int

const (
	Relative ScrollMode = iota
	Absolute
)

// Cursor buffers one ResultBundle and tracks a cursor position within its
// rows, matching the fetchone/fetchmany/fetchall/scroll semantics of a
// DB-API 2.0 cursor.
type Cursor struct {
	conn *pgconn.Conn

	// ArraySize is the default FetchMany batch size, defaulting to 1.
	ArraySize int

	bundle    *pgconn.ResultBundle
	rowNumber int
}

// New creates a cursor bound to conn. Cursors created from the same
// connection are not isolated from one another; cursors from different
// connections are.
func New(conn *pgconn.Conn) *Cursor {
	return &Cursor{conn: conn, ArraySize: 1}
}

// Execute runs sql on the underlying connection and resets the cursor's
// fetch position to the start of the new result set.
func (c *Cursor) Execute(sql string, queryParams any) error {
	bundle, err := c.conn.Execute(sql, queryParams)
	if err != nil {
		c.bundle = nil
		return err
	}
	c.bundle = bundle
	c.rowNumber = 0
	return nil
}

// Description returns the field descriptions of the current result set, or
// nil if Execute has not produced a result set with rows.
func (c *Cursor) Description() []pgconn.Field {
	if c.bundle == nil {
		return nil
	}
	return c.bundle.Fields
}

// RowCount returns the number of rows in the current result set, or -1 if
// none is available.
func (c *Cursor) RowCount() int {
	if c.bundle == nil {
		return -1
	}
	return len(c.bundle.Rows)
}

func (c *Cursor) requireResultSet() error {
	if c.bundle == nil {
		return pgerror.New(pgerror.Interface, "no result set available")
	}
	return nil
}

// FetchOne returns the next row, or nil if no more rows are available.
func (c *Cursor) FetchOne() ([]any, error) {
	if err := c.requireResultSet(); err != nil {
		return nil, err
	}
	if c.rowNumber >= len(c.bundle.Rows) {
		return nil, nil
	}
	row := c.bundle.Rows[c.rowNumber]
	c.rowNumber++
	return row, nil
}

// FetchMany returns up to n rows starting at the current position. If n is
// 0, ArraySize is used. An empty slice (never nil) is returned once rows
// are exhausted.
func (c *Cursor) FetchMany(n int) ([][]any, error) {
	if err := c.requireResultSet(); err != nil {
		return nil, err
	}
	if n == 0 {
		n = c.ArraySize
	}
	start := c.rowNumber
	end := start + n
	if end > len(c.bundle.Rows) {
		end = len(c.bundle.Rows)
	}
	c.rowNumber = end
	if c.bundle.Rows == nil {
		return [][]any{}, nil
	}
	return c.bundle.Rows[start:end], nil
}

// FetchAll returns every remaining row.
func (c *Cursor) FetchAll() ([][]any, error) {
	if err := c.requireResultSet(); err != nil {
		return nil, err
	}
	return c.FetchMany(len(c.bundle.Rows) - c.rowNumber)
}

// Scroll repositions the cursor by n rows (Relative) or to row n
// (Absolute). It returns a pgerror.Programming error for an unknown mode
// and a pgerror.Data error if the target position would leave the result
// set, leaving the cursor position unchanged in both cases.
func (c *Cursor) Scroll(n int, mode ScrollMode) error {
	if err := c.requireResultSet(); err != nil {
		return err
	}
	var target int
	switch mode {
	case Relative:
		target = c.rowNumber + n
	case Absolute:
		target = n
	default:
		return pgerror.New(pgerror.Programming, "unknown scroll mode %v", mode)
	}
	if target < 0 || target >= len(c.bundle.Rows) {
		return pgerror.New(pgerror.Data, "scroll target position %d outside of range 0..%d", target, len(c.bundle.Rows)-1)
	}
	c.rowNumber = target
	return nil
}

// Close discards the cursor's buffered result set. Subsequent fetches
// return an interface error until Execute is called again.
func (c *Cursor) Close() {
	c.bundle = nil
	c.rowNumber = 0
}
