package pgconn

import "github.com/mevdschee/pgwire/pgtype"

// Field describes one column of a RowDescription (spec.md §3 "Result
// Bundle").
type Field struct {
	Name     string
	OID      uint32
	Size     int16
	Modifier int32
	Category pgtype.Category
}

// Message is a non-fatal notice collected on a bundle, spec.md §3.
type Message struct {
	Severity string // always "Warning" for NoticeResponse, per spec.md
	Text     string
}

// ResultBundle is one per executed statement in a batch (spec.md §3).
// Invariant: Error and Completion are never both non-empty.
type ResultBundle struct {
	Fields     []Field
	decoders   []pgtype.Decoder
	Rows       [][]any
	Completion string
	Error      string
	Messages   []Message
}

func newResultBundle() *ResultBundle {
	return &ResultBundle{}
}

func (b *ResultBundle) setDescription(fields []Field, decoders []pgtype.Decoder) {
	b.Fields = fields
	b.decoders = decoders
	b.Rows = [][]any{}
}

// Batch is the ordered list of ResultBundles produced by one execute call
// (spec.md §3). The engine opens a fresh empty bundle after every
// completion or error so a subsequent description/row always has a target;
// that trailing bundle is never added to the batch that is returned.
type Batch []*ResultBundle
