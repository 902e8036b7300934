package pgconn

import (
	"log"
	"strconv"

	"github.com/mevdschee/pgwire/pgerror"
	"github.com/mevdschee/pgwire/pgproto"
	"github.com/mevdschee/pgwire/pgtype"
)

// readOnePacket reads one tagged packet off the wire and dispatches it to
// the matching handler, per spec.md §4.3's "fixed table mapping each
// supported tag byte to a handler; unknown tags are fatal" (DESIGN NOTES
// "Dynamic dispatch on packet tag" restated as this switch rather than
// method-name reflection). It is shared by the startup loop, the batch
// loop, and wait_for_notify's single-packet read, since all three are
// really the same "read and apply one server message" operation.
func (c *Conn) readOnePacket() error {
	tag, err := c.r.ReadByte()
	if err != nil {
		return err
	}
	switch tag {
	case pgproto.TagAuth:
		return c.handleAuth(c.password)
	case pgproto.TagBackendKeyData:
		return c.handleBackendKeyData()
	case pgproto.TagReadyForQuery:
		c.ready = true
		return nil
	case pgproto.TagRowDescription:
		return c.handleRowDescription()
	case pgproto.TagAsciiRow:
		return c.handleRow(true)
	case pgproto.TagBinaryRow:
		return c.handleRow(false)
	case pgproto.TagCommandComplete:
		return c.handleCommandComplete()
	case pgproto.TagEmptyQuery:
		return c.handleEmptyQuery()
	case pgproto.TagErrorResponse:
		return c.handleErrorResponse()
	case pgproto.TagNoticeResponse:
		return c.handleNoticeResponse()
	case pgproto.TagNotification:
		return c.handleNotification()
	case pgproto.TagCursorResponse:
		_, err := c.r.ReadCString()
		return err // informational only, per spec.md §4.3
	case pgproto.TagCopyInResponse:
		return c.handleCopyIn()
	case pgproto.TagCopyOutResponse:
		return c.handleCopyOut()
	case pgproto.TagFunctionResponse:
		return c.handleFunctionResponse()
	default:
		return pgerror.New(pgerror.Interface, "unrecognized packet type from server: %q", tag)
	}
}

func (c *Conn) handleBackendKeyData() error {
	pid, err := c.r.ReadInt32()
	if err != nil {
		return err
	}
	secret, err := c.r.ReadInt32()
	if err != nil {
		return err
	}
	c.backendPID, c.backendSecret = pid, secret
	return nil
}

func (c *Conn) handleRowDescription() error {
	nFields, err := c.r.ReadInt16()
	if err != nil {
		return err
	}
	fields := make([]Field, nFields)
	decoders := make([]pgtype.Decoder, nFields)
	for i := range fields {
		name, err := c.r.ReadCString()
		if err != nil {
			return err
		}
		oid, err := c.r.ReadUint32()
		if err != nil {
			return err
		}
		size, err := c.r.ReadInt16()
		if err != nil {
			return err
		}
		modifier, err := c.r.ReadInt32()
		if err != nil {
			return err
		}
		desc := c.registry.DescriptorForOID(oid)
		fields[i] = Field{Name: name, OID: oid, Size: size, Modifier: modifier, Category: desc.Category}
		decoders[i] = c.registry.Decode(oid)
	}
	if c.current == nil {
		c.current = newResultBundle()
	}
	c.current.setDescription(fields, decoders)
	return nil
}

func (c *Conn) handleRow(ascii bool) error {
	if c.current == nil || c.current.decoders == nil {
		return pgerror.New(pgerror.Interface, "row data arrived before a row description")
	}
	numFields := len(c.current.decoders)
	bitmapSize := pgproto.NullBitmapSize(numFields)
	bitmap, err := c.r.ReadN(bitmapSize)
	if err != nil {
		return err
	}

	row := make([]any, numFields)
	for i := 0; i < numFields; i++ {
		if !pgproto.FieldPresent(bitmap, i) {
			row[i] = nil
			continue
		}
		length, err := c.r.ReadInt32()
		if err != nil {
			return err
		}
		if ascii {
			length -= 4
		}
		data, err := c.r.ReadN(int(length))
		if err != nil {
			return err
		}
		v, err := c.current.decoders[i](data)
		if err != nil {
			return pgerror.Wrap(pgerror.Data, err, "decoding field %d (%s)", i, c.current.Fields[i].Name)
		}
		row[i] = v
	}
	c.current.Rows = append(c.current.Rows, row)
	return nil
}

func (c *Conn) handleCommandComplete() error {
	tag, err := c.r.ReadCString()
	if err != nil {
		return err
	}
	if c.current == nil {
		c.current = newResultBundle()
	}
	c.current.Completion = tag
	c.startNewBundle()
	return nil
}

func (c *Conn) handleEmptyQuery() error {
	msg, err := c.r.ReadCString()
	if err != nil {
		return err
	}
	log.Printf("pgwire: empty query: %s", msg)
	return nil
}

func (c *Conn) handleErrorResponse() error {
	msg, err := c.r.ReadCString()
	if err != nil {
		return err
	}
	if c.current == nil {
		// No batch is in flight (e.g. during startup): this is fatal.
		return pgerror.New(pgerror.Database, msg)
	}
	c.current.Error = msg
	c.startNewBundle()
	return nil
}

func (c *Conn) handleNoticeResponse() error {
	text, err := c.r.ReadCString()
	if err != nil {
		return err
	}
	if c.current == nil {
		log.Printf("pgwire: notice: %s", text)
		return nil
	}
	c.current.Messages = append(c.current.Messages, Message{Severity: "Warning", Text: text})
	return nil
}

func (c *Conn) handleNotification() error {
	pid, err := c.r.ReadInt32()
	if err != nil {
		return err
	}
	channel, err := c.r.ReadCString()
	if err != nil {
		return err
	}
	c.enqueueNotification(Notification{Channel: channel, PID: pid})
	return nil
}

// startNewBundle appends the current (now closed) bundle to the batch and
// opens a fresh empty ResultBundle as the current one, per spec.md §3
// "Batch" invariant: a subsequent row description or row always has a
// target, since a server may return multiple result sets from a
// multi-statement query.
func (c *Conn) startNewBundle() {
	c.batch = append(c.batch, c.current)
	c.current = newResultBundle()
}

// bootstrap runs the two setup statements spec.md §4.4 requires after
// startup completes: switch the client encoding to UTF-8, then resolve
// every PostgreSQL type OID the server knows about into this connection's
// cloned Type Registry.
func (c *Conn) bootstrap() error {
	if _, err := c.Execute("SET CLIENT_ENCODING to 'UNICODE'", nil); err != nil {
		return err
	}
	bundle, err := c.Execute("SELECT oid, typname FROM pg_type", nil)
	if err != nil {
		return err
	}
	for _, row := range bundle.Rows {
		// Neither column's type OID is registered yet at this point (that
		// is the very thing this query bootstraps), so both come back
		// through the default UTF-8 text decoder as plain strings.
		oidText, ok := row[0].(string)
		if !ok {
			continue
		}
		name, ok := row[1].(string)
		if !ok {
			continue
		}
		oid, err := strconv.ParseUint(oidText, 10, 32)
		if err != nil {
			continue
		}
		c.registry.RegisterOID(uint32(oid), name)
	}
	return nil
}
