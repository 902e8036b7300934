// Package pgtype implements the bidirectional mapping between PostgreSQL
// field encodings and host values: the Type Registry of the protocol
// engine's type mapping subsystem.
//
// The registry is interleaved with packet framing on purpose (per-field
// decoders are resolved while a RowDescription is being parsed) but is kept
// in its own package because the mapping rules themselves have nothing to
// do with socket I/O.
package pgtype

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Category mirrors the DB-API 2.0 type groupings the original driver
// exposed (STRING, BINARY, NUMBER, ROWID, DATETIME, BOOL, UNKNOWN).
type Category int

const (
	Unknown Category = iota
	String
	Binary
	Number
	RowID
	Bool
	DateTime
)

func (c Category) String() string {
	switch c {
	case String:
		return "string"
	case Binary:
		return "binary"
	case Number:
		return "number"
	case RowID:
		return "rowid"
	case Bool:
		return "bool"
	case DateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Decoder converts raw field bytes off the wire into a host value.
type Decoder func([]byte) (any, error)

// Encoder converts a host value of a particular Go type into the literal
// SQL text that should be substituted into a query.
type Encoder func(any) string

// Descriptor is the (name, decoder, category, OID) tuple described by
// spec.md §3 "Type Descriptor". OID is 0 until register_oid binds one.
type Descriptor struct {
	Name     string
	Decode   Decoder
	Category Category
	OID      uint32
}

var defaultDescriptor = &Descriptor{Name: "unknown", Decode: decodeText, Category: Unknown}

// Registry is the Type Registry of spec.md §4.2. The zero value is not
// usable; construct with NewDefault or Clone an existing registry.
type Registry struct {
	byName   map[string]*Descriptor
	byOID    map[uint32]*Descriptor
	encoders map[string]Encoder // keyed by a Go type discriminator, see typeKey
}

func newRegistry() *Registry {
	return &Registry{
		byName:   make(map[string]*Descriptor),
		byOID:    make(map[uint32]*Descriptor),
		encoders: make(map[string]Encoder),
	}
}

// NewDefault builds the process-wide default registry with the built-in
// PostgreSQL type registrations from spec.md §4.2. Callers normally don't
// call this directly — see Default() — but it's exposed so a process that
// wants a registry with no shared state at all can build one.
func NewDefault() *Registry {
	r := newRegistry()
	r.RegisterByName([]string{"char", "varchar", "text"}, decodeText, String)
	r.RegisterByName([]string{"bytea"}, decodeBytea, Binary)
	r.RegisterByName([]string{"int2", "int4"}, decodeInt32, Number)
	r.RegisterByName([]string{"int8"}, decodeInt64, Number)
	r.RegisterByName([]string{"float4", "float8"}, decodeFloat64, Number)
	r.RegisterByName([]string{"numeric"}, decodeNumeric, Number)
	r.RegisterByName([]string{"oid"}, decodeOID, RowID)
	r.RegisterByName([]string{"bool"}, decodeBool, Bool)
	r.RegisterByName([]string{"date"}, decodeDate, DateTime)

	r.RegisterHostEncoder(typeKeyOf(civil.Date{}), func(v any) string {
		return fmt.Sprintf("'%s'::date", v.(civil.Date).String())
	})
	return r
}

var processDefault = NewDefault()

// Default returns the process-wide default registry described by DESIGN
// NOTES' "Process-wide default Type Registry": an immutable-in-practice
// snapshot that each connection clones. Callers should register custom
// types on it before opening any connection — registrations made afterward
// are invisible to already-cloned connections, matching the original
// driver's module-level DEFAULT_TYPE_MANAGER semantics.
func Default() *Registry { return processDefault }

// Clone performs the shallow copy spec.md §4.2 requires: subsequent
// register_oid calls on the clone never mutate the source registry.
func (r *Registry) Clone() *Registry {
	c := newRegistry()
	for k, v := range r.byName {
		c.byName[k] = v
	}
	for k, v := range r.byOID {
		c.byOID[k] = v
	}
	for k, v := range r.encoders {
		c.encoders[k] = v
	}
	return c
}

// RegisterByName installs a descriptor under one or more PostgreSQL type
// names. If an OID was already bound to that name (via a prior RegisterOID
// call), the OID index is rewritten to point at the new descriptor.
func (r *Registry) RegisterByName(names []string, decode Decoder, cat Category) {
	for _, name := range names {
		var oid uint32
		hadOID := false
		if existing, ok := r.byName[name]; ok && existing.OID != 0 {
			oid, hadOID = existing.OID, true
		}
		d := &Descriptor{Name: name, Decode: decode, Category: cat, OID: oid}
		r.byName[name] = d
		if hadOID {
			r.byOID[oid] = d
		}
	}
}

// RegisterOID binds an OID to the descriptor known under name, creating a
// default "unknown" descriptor under that name if none is registered yet.
// This is what the bootstrap `pg_type` query drives at connect time.
func (r *Registry) RegisterOID(oid uint32, name string) {
	var d *Descriptor
	if existing, ok := r.byName[name]; ok {
		// Copy rather than mutate: the descriptor may be shared with the
		// registry this one was cloned from.
		cp := *existing
		d = &cp
	} else {
		d = &Descriptor{Name: name, Decode: decodeText, Category: Unknown}
	}
	d.OID = oid
	r.byName[name] = d
	r.byOID[oid] = d
}

// RegisterHostEncoder installs a literal encoder for a host Go type,
// discriminated by typeKeyOf. Used for host types with no natural string
// form, such as civil.Date ('...'::date).
func (r *Registry) RegisterHostEncoder(key string, enc Encoder) {
	r.encoders[key] = enc
}

// Decode returns the decoder registered for oid, or the default UTF-8 text
// decoder — spec.md §3's invariant that the engine never fails on an
// unrecognized OID.
func (r *Registry) Decode(oid uint32) Decoder {
	if d, ok := r.byOID[oid]; ok {
		return d.Decode
	}
	return defaultDescriptor.Decode
}

// DescriptorForOID mirrors Decode but returns the whole descriptor, e.g.
// for exposing Category in a cursor's column description.
func (r *Registry) DescriptorForOID(oid uint32) *Descriptor {
	if d, ok := r.byOID[oid]; ok {
		return d
	}
	return defaultDescriptor
}

// EncodeLiteral implements encode_literal from spec.md §4.2: dispatches to
// a registered host encoder, otherwise NULL for nil, single-quoted
// backslash-escaped text for strings, and %v for everything else.
func (r *Registry) EncodeLiteral(v any) string {
	if v == nil {
		return "NULL"
	}
	if enc, ok := r.encoders[typeKeyOf(v)]; ok {
		return enc(v)
	}
	switch s := v.(type) {
	case string:
		return quoteString(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func quoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// typeKeyOf is a cheap discriminator for RegisterHostEncoder/EncodeLiteral
// dispatch, avoiding a reflect.TypeOf import for the one case we need.
func typeKeyOf(v any) string {
	switch v.(type) {
	case civil.Date:
		return "civil.Date"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// --- default decoders, spec.md §4.2 registrations ---

func decodeText(b []byte) (any, error) { return string(b), nil }

func decodeBytea(b []byte) (any, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func decodeInt32(b []byte) (any, error) {
	n, err := strconv.ParseInt(string(b), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("pgtype: int4: %w", err)
	}
	return int32(n), nil
}

func decodeInt64(b []byte) (any, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("pgtype: int8: %w", err)
	}
	return n, nil
}

func decodeFloat64(b []byte) (any, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil, fmt.Errorf("pgtype: float8: %w", err)
	}
	return f, nil
}

func decodeNumeric(b []byte) (any, error) {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return nil, fmt.Errorf("pgtype: numeric: %w", err)
	}
	return d, nil
}

func decodeOID(b []byte) (any, error) {
	n, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("pgtype: oid: %w", err)
	}
	return uint32(n), nil
}

func decodeBool(b []byte) (any, error) {
	switch string(b) {
	case "t":
		return true, nil
	case "f":
		return false, nil
	default:
		return nil, fmt.Errorf("pgtype: bool: unrecognized value %q", b)
	}
}

func decodeDate(b []byte) (any, error) {
	parts := strings.SplitN(string(b), "-", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("pgtype: date: malformed value %q", b)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("pgtype: date: %w", err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("pgtype: date: %w", err)
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("pgtype: date: %w", err)
	}
	return civil.Date{Year: y, Month: time.Month(m), Day: d}, nil
}
