package pgconn

import (
	"github.com/mevdschee/pgwire/pgerror"
	"github.com/mevdschee/pgwire/pgproto"
)

// Funcall invokes a server-side function by OID, the low-level primitive
// spec.md §4.4/§6 describes — used directly by callers and indirectly by
// the Large-Object Facade. Each argument is sent as described in spec.md
// §4.3: non-negative 64-bit integers as unsigned int32 (OIDs), other
// integers as signed int32, everything else as raw bytes.
func (c *Conn) Funcall(oid uint32, args ...any) ([]byte, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	encoded := make([]pgproto.FuncallArg, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case uint32:
			encoded[i] = pgproto.OIDArg(v)
		case uint64:
			encoded[i] = pgproto.OIDArg(uint32(v))
		case int:
			encoded[i] = signedOrOIDArg(int64(v))
		case int32:
			encoded[i] = pgproto.IntArg(v)
		case int64:
			encoded[i] = signedOrOIDArg(v)
		case []byte:
			encoded[i] = pgproto.BytesArg(v)
		case string:
			encoded[i] = pgproto.BytesArg([]byte(v))
		default:
			return nil, pgerror.New(pgerror.Programming, "funcall: unsupported argument type %T", a)
		}
	}

	c.ready = false
	c.funcResult, c.funcResultSet = nil, false
	if err := c.w.Write(pgproto.EncodeFunctionCall(oid, encoded)); err != nil {
		return nil, err
	}

	for !c.ready {
		if err := c.readOnePacket(); err != nil {
			return nil, err
		}
	}

	result := c.funcResult
	c.funcResult, c.funcResultSet = nil, false
	return result, nil
}

// signedOrOIDArg mirrors the original driver's "positive longs go out as
// unsigned" rule, spec.md §4.3.
func signedOrOIDArg(v int64) pgproto.FuncallArg {
	if v >= 0 {
		return pgproto.OIDArg(uint32(v))
	}
	return pgproto.IntArg(int32(v))
}

// handleFunctionResponse implements the 'V' FunctionResponse of spec.md
// §4.3/§4.4: read bytes until a '0' terminator; a 'G' sub-tag carries an
// inline int32 length followed by that many payload bytes, which become
// the function result. Any other sub-tag is a fatal interface error.
func (c *Conn) handleFunctionResponse() error {
	for {
		sub, err := c.r.ReadByte()
		if err != nil {
			return err
		}
		if sub == '0' {
			return nil // ReadyForQuery ('Z') still follows and ends the wait loop
		}
		if sub != 'G' {
			return pgerror.New(pgerror.Interface, "unexpected byte %q in function call response", sub)
		}
		n, err := c.r.ReadInt32()
		if err != nil {
			return err
		}
		data, err := c.r.ReadN(int(n))
		if err != nil {
			return err
		}
		c.funcResult, c.funcResultSet = data, true
	}
}
