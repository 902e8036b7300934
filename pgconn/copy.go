package pgconn

import (
	"bufio"
	"io"
	"os"

	"github.com/mevdschee/pgwire/pgerror"
)

// SetCopyInSource overrides the input stream CopyIn trampolines read from;
// the default is os.Stdin, matching the original driver's fallback to
// sys.stdin.
func (c *Conn) SetCopyInSource(r io.Reader) { c.copyInSource = r }

// SetCopyOutSink overrides the output stream CopyOut trampolines write to;
// the default is os.Stdout, matching the original driver's sys.stdout
// fallback.
func (c *Conn) SetCopyOutSink(w io.Writer) { c.copyOutSink = w }

func (c *Conn) copyInReader() *bufio.Reader {
	if c.copyInSource != nil {
		return bufio.NewReader(c.copyInSource)
	}
	return bufio.NewReader(os.Stdin)
}

func (c *Conn) copyOutWriter() io.Writer {
	if c.copyOutSink != nil {
		return c.copyOutSink
	}
	return os.Stdout
}

// handleCopyIn implements the 'G' CopyIn trampoline of spec.md §4.4:
// stream lines from the input source verbatim until end-of-input or a
// line consisting of "\.\n"; always terminate with "\.\n" regardless of
// whether the input already ended in a newline.
func (c *Conn) handleCopyIn() error {
	src := c.copyInReader()
	var lastLine string
	for {
		line, err := src.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		if line == "\\.\n" {
			break
		}
		if err := c.w.Write([]byte(line)); err != nil {
			return err
		}
		lastLine = line
		if err != nil {
			break // final, unterminated line of the input
		}
	}
	if lastLine != "" && lastLine[len(lastLine)-1] != '\n' {
		if err := c.w.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return c.w.Write([]byte("\\.\n"))
}

// handleCopyOut implements the 'H' CopyOut trampoline of spec.md §4.4:
// read newline-terminated records until one equals "\.", writing each
// (with a trailing newline) to the output sink.
func (c *Conn) handleCopyOut() error {
	out := c.copyOutWriter()
	for {
		line, err := c.r.ReadUntil('\n')
		if err != nil {
			return err
		}
		if string(line) == "\\." {
			return nil
		}
		if _, err := out.Write(line); err != nil {
			return pgerror.Wrap(pgerror.Operational, err, "writing copy-out record")
		}
		if _, err := out.Write([]byte("\n")); err != nil {
			return pgerror.Wrap(pgerror.Operational, err, "writing copy-out record")
		}
	}
}
