// Package pgconn implements the Protocol Engine, Result Assembler, and
// Large-Object Facade of spec.md §4.4–§4.6: the state machine that drives
// connection startup and authentication, issues simple queries, parses
// typed result streams, invokes server-side functions, and delivers
// asynchronous notifications.
package pgconn

import (
	"io"
	"net"
	"runtime"
	"strconv"
	"strings"

	"github.com/mevdschee/pgwire/dsn"
	"github.com/mevdschee/pgwire/metrics"
	"github.com/mevdschee/pgwire/pgerror"
	"github.com/mevdschee/pgwire/pgproto"
	"github.com/mevdschee/pgwire/pgtype"
)

const defaultPort = 5432

// connectConfig accumulates the pieces described in spec.md §6's
// constructor signature: connect(dsn?, user?, password?, host?, dbname?,
// port?, options?). Explicit fields are defaults for whatever the DSN
// string doesn't specify.
type connectConfig struct {
	dsn      string
	host     string
	port     int
	user     string
	password string
	database string
	options  string
	registry *pgtype.Registry
}

// Option configures a Connect call.
type Option func(*connectConfig)

func WithDSN(s string) Option      { return func(c *connectConfig) { c.dsn = s } }
func WithHost(s string) Option     { return func(c *connectConfig) { c.host = s } }
func WithPort(p int) Option        { return func(c *connectConfig) { c.port = p } }
func WithUser(s string) Option     { return func(c *connectConfig) { c.user = s } }
func WithPassword(s string) Option { return func(c *connectConfig) { c.password = s } }
func WithDatabase(s string) Option { return func(c *connectConfig) { c.database = s } }
func WithOptions(s string) Option  { return func(c *connectConfig) { c.options = s } }

// WithRegistry overrides the process-wide default type registry a new
// connection would otherwise clone from pgtype.Default().
func WithRegistry(r *pgtype.Registry) Option { return func(c *connectConfig) { c.registry = r } }

// Conn is a live session bound to one stream socket (spec.md §3
// "Connection"). A Conn is not safe for concurrent use by multiple
// goroutines — per spec.md §5, callers must serialize access themselves.
type Conn struct {
	netConn net.Conn
	r       *pgproto.Reader
	w       *pgproto.Writer

	backendPID    int32
	backendSecret int32
	authenticated bool
	ready         bool
	closed        bool

	batch   Batch
	current *ResultBundle

	notifyQueue []Notification

	funcResult    []byte
	funcResultSet bool

	loFuncsByName map[string]uint32
	loNamesByFunc map[uint32]string

	registry *pgtype.Registry

	user     string // retained for MD5 auth (password ∥ user)
	password string // retained in case the server re-challenges mid-session

	copyInSource io.Reader
	copyOutSink  io.Writer
}

// Connect opens a socket (AF_UNIX if the resolved host begins with '/',
// otherwise AF_INET/AF_INET6 via net.Dial), completes startup and
// authentication, and runs the bootstrap pg_type query before returning —
// exactly the spec.md §4.4 "On connect" / "After Ready" sequence.
func Connect(opts ...Option) (*Conn, error) {
	cfg := defaultConnectConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	applyDSN(&cfg)

	netConn, err := dialFor(cfg.host, cfg.port)
	if err != nil {
		metrics.ConnectionErrors.WithLabelValues("dial").Inc()
		return nil, pgerror.Wrap(pgerror.Operational, err, "dial failed")
	}

	c, err := newConnOverSocket(netConn, cfg)
	if err != nil {
		netConn.Close()
		metrics.ConnectionErrors.WithLabelValues("handshake").Inc()
		return nil, err
	}
	metrics.ConnectionsOpened.Inc()
	return c, nil
}

func defaultConnectConfig() connectConfig {
	host := "/tmp/.s.PGSQL.5432"
	if runtime.GOOS == "windows" {
		host = "127.0.0.1"
	}
	return connectConfig{host: host, port: defaultPort}
}

// applyDSN lets each keyword present in the parsed DSN string override the
// matching field, whether that field came from an explicit option or a
// default, per spec.md §6: "Explicit constructor arguments provide
// defaults for any absent keyword" — i.e. the DSN wins when present.
func applyDSN(cfg *connectConfig) {
	kv := dsn.Parse(cfg.dsn)
	if v, ok := kv["host"]; ok {
		cfg.host = v
	}
	if v, ok := kv["port"]; ok {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.port = p
		}
	}
	if v, ok := kv["dbname"]; ok {
		cfg.database = v
	}
	if v, ok := kv["user"]; ok {
		cfg.user = v
	}
	if v, ok := kv["password"]; ok {
		cfg.password = v
	}
	if v, ok := kv["options"]; ok {
		cfg.options = v
	}
}

func dialFor(host string, port int) (net.Conn, error) {
	if strings.HasPrefix(host, "/") {
		return net.Dial("unix", host)
	}
	return net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

// newConnOverSocket runs the handshake over an already-open net.Conn. Split
// out from Connect so tests can drive the state machine over a net.Pipe
// against a fake server goroutine without a real PostgreSQL backend.
func newConnOverSocket(netConn net.Conn, cfg connectConfig) (*Conn, error) {
	registry := cfg.registry
	if registry == nil {
		registry = pgtype.Default()
	}

	c := &Conn{
		netConn:       netConn,
		r:             pgproto.NewReader(netConn),
		w:             pgproto.NewWriter(netConn),
		registry:      registry.Clone(),
		user:          cfg.user,
		password:      cfg.password,
		loFuncsByName: make(map[string]uint32),
		loNamesByFunc: make(map[uint32]string),
	}

	if err := c.startup(cfg); err != nil {
		return nil, err
	}
	if err := c.bootstrap(); err != nil {
		return nil, err
	}
	return c, nil
}

// Close sends the one-byte terminate packet and closes the socket (spec.md
// §3 lifecycle). Subsequent operations fail with pgerror.Interface.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.w.Write(pgproto.EncodeTerminate())
	return c.netConn.Close()
}

func (c *Conn) checkOpen() error {
	if c.closed {
		return pgerror.New(pgerror.Interface, "operation attempted on a closed connection")
	}
	return nil
}

// Registry exposes the connection's cloned Type Registry, e.g. for
// registering additional host encoders before issuing queries.
func (c *Conn) Registry() *pgtype.Registry { return c.registry }

// BackendPID returns the backend process id delivered by BackendKeyData,
// useful for matching it against notifications.
func (c *Conn) BackendPID() int32 { return c.backendPID }
