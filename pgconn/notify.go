package pgconn

import (
	"net"
	"time"

	"github.com/mevdschee/pgwire/metrics"
	"github.com/mevdschee/pgwire/pgerror"
)

// isTimeoutErr reports whether err is a net.Error signaling a read deadline
// expiry, the only way waitReadable distinguishes "nothing arrived" from a
// genuine socket failure.
func isTimeoutErr(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// Notification is the (channel, backend pid) pair delivered asynchronously
// by NOTIFY on another session, spec.md §3.
type Notification struct {
	Channel string
	PID     int32
}

func (c *Conn) enqueueNotification(n Notification) {
	c.notifyQueue = append(c.notifyQueue, n)
}

// WaitForNotify drains the FIFO notification queue if anything is already
// queued, otherwise waits up to timeout for the backend socket to become
// readable and reads one packet, looping until a notification arrives or
// the deadline expires. A negative timeout waits indefinitely; zero polls
// once. Per spec.md §4.4, once a packet has begun arriving, reading it
// completes regardless of the deadline — the deadline only bounds the wait
// for the first byte.
func (c *Conn) WaitForNotify(timeout time.Duration) (*Notification, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	for {
		if len(c.notifyQueue) > 0 {
			n := c.notifyQueue[0]
			c.notifyQueue = c.notifyQueue[1:]
			metrics.NotificationsDelivered.WithLabelValues(n.Channel).Inc()
			return &n, nil
		}

		ready, err := c.waitReadable(timeout)
		if err != nil {
			return nil, err
		}
		if !ready {
			return nil, pgerror.New(pgerror.Timeout, "wait_for_notify timed out after %s", timeout)
		}
		if err := c.readOnePacket(); err != nil {
			return nil, err
		}
	}
}

// waitReadable blocks until the socket has bytes available or the deadline
// elapses. A buffered byte already sitting in the reader counts as ready
// immediately, matching the original's check-input-buffer-first shortcut.
func (c *Conn) waitReadable(timeout time.Duration) (bool, error) {
	if c.r.Buffered() > 0 {
		return true, nil
	}

	if timeout < 0 {
		if err := c.netConn.SetReadDeadline(time.Time{}); err != nil {
			return false, pgerror.Wrap(pgerror.Operational, err, "set read deadline")
		}
	} else {
		if err := c.netConn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return false, pgerror.Wrap(pgerror.Operational, err, "set read deadline")
		}
	}
	defer c.netConn.SetReadDeadline(time.Time{})

	// Peek a single byte to discover readability without consuming it from
	// the framed reader's perspective; readOnePacket re-reads the tag.
	b, err := c.r.PeekByte()
	if err != nil {
		if isTimeoutErr(err) {
			return false, nil
		}
		return false, err
	}
	_ = b
	return true, nil
}
