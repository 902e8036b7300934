package pgconn

import (
	"encoding/binary"
	"strconv"

	"github.com/mevdschee/pgwire/pgerror"
)

// Large Object mode flags, spec.md §6.
const (
	LoRead  int32 = 0x00040000
	LoWrite int32 = 0x00020000
)

// Seek whence values, spec.md §4.6.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// LargeObject is a backend-assigned descriptor plus a non-owning reference
// back to its owning Conn, per spec.md §3 "Large-Object Descriptor" and
// DESIGN NOTES "Cyclic ownership": the Conn owns the socket and types, the
// descriptor only borrows it to route function calls.
type LargeObject struct {
	conn   *Conn
	fd     int32
	closed bool
}

// loInit builds the lo_* name → OID table on first use by querying
// pg_proc, per spec.md §4.6. Extra non-LO matches from the LIKE pattern are
// harmless since only recognized names are ever looked up.
func (c *Conn) loInit() error {
	if len(c.loFuncsByName) > 0 {
		return nil
	}
	bundle, err := c.Execute("SELECT proname, oid FROM pg_proc WHERE proname LIKE 'lo%'", nil)
	if err != nil {
		return err
	}
	for _, row := range bundle.Rows {
		name, ok := row[0].(string)
		if !ok {
			continue
		}
		oidText, ok := row[1].(string)
		if !ok {
			continue
		}
		oid, err := strconv.ParseUint(oidText, 10, 32)
		if err != nil {
			continue
		}
		c.loFuncsByName[name] = uint32(oid)
		c.loNamesByFunc[uint32(oid)] = name
	}
	return nil
}

func (c *Conn) loFunc(name string) (uint32, error) {
	if err := c.loInit(); err != nil {
		return 0, err
	}
	oid, ok := c.loFuncsByName[name]
	if !ok {
		return 0, pgerror.New(pgerror.Interface, "server has no %s large-object function", name)
	}
	return oid, nil
}

func decodeInt32Result(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, pgerror.New(pgerror.Data, "expected 4-byte integer result, got %d bytes", len(b))
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// LoCreate creates a new Large Object with the given mode and returns its
// OID, spec.md §6.
func (c *Conn) LoCreate(mode int32) (uint32, error) {
	oid, err := c.loFunc("lo_creat")
	if err != nil {
		return 0, err
	}
	r, err := c.Funcall(oid, mode)
	if err != nil {
		return 0, err
	}
	v, err := decodeInt32Result(r)
	return uint32(v), err
}

// LoOpen opens the Large Object identified by oid and seeks to offset 0
// immediately, per spec.md §4.6.
func (c *Conn) LoOpen(oid uint32, mode int32) (*LargeObject, error) {
	fnOID, err := c.loFunc("lo_open")
	if err != nil {
		return nil, err
	}
	r, err := c.Funcall(fnOID, oid, mode)
	if err != nil {
		return nil, err
	}
	fd, err := decodeInt32Result(r)
	if err != nil {
		return nil, err
	}
	lo := &LargeObject{conn: c, fd: fd}
	if err := lo.Seek(0, SeekSet); err != nil {
		return nil, err
	}
	return lo, nil
}

// LoUnlink deletes the Large Object identified by oid.
func (c *Conn) LoUnlink(oid uint32) error {
	fnOID, err := c.loFunc("lo_unlink")
	if err != nil {
		return err
	}
	_, err = c.Funcall(fnOID, oid)
	return err
}

func (lo *LargeObject) call(name string, args ...any) ([]byte, error) {
	if lo.closed {
		return nil, pgerror.New(pgerror.Interface, "operation on a closed large object")
	}
	oid, err := lo.conn.loFunc(name)
	if err != nil {
		return nil, err
	}
	allArgs := append([]any{lo.fd}, args...)
	return lo.conn.Funcall(oid, allArgs...)
}

// Read returns up to n bytes from the large object.
func (lo *LargeObject) Read(n int) ([]byte, error) {
	return lo.call("loread", int32(n))
}

// Write writes data and returns the server-reported count written.
func (lo *LargeObject) Write(data []byte) (int32, error) {
	r, err := lo.call("lowrite", data)
	if err != nil {
		return 0, err
	}
	return decodeInt32Result(r)
}

// Seek repositions the large object, per spec.md §4.6.
func (lo *LargeObject) Seek(offset, whence int32) error {
	_, err := lo.call("lo_lseek", offset, whence)
	return err
}

// Tell returns the current offset within the large object.
func (lo *LargeObject) Tell() (int32, error) {
	r, err := lo.call("lo_tell")
	if err != nil {
		return 0, err
	}
	return decodeInt32Result(r)
}

// Close closes the large object; subsequent operations fail with
// pgerror.Interface.
func (lo *LargeObject) Close() error {
	if lo.closed {
		return nil
	}
	_, err := lo.call("lo_close")
	lo.closed = true
	return err
}
