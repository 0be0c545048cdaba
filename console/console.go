// Package console implements a tiny UART debug shell for a running
// Session: capture a frame on demand, print Stats, or adjust JPEG
// quality, without needing a host-side tool attached.
package console // import "github.com/ov2640cam/camcore/console"

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/google/shlex"

	"github.com/ov2640cam/camcore"
)

// Console reads command lines from r and writes responses to w.
type Console struct {
	session *camcore.Session
	r       *bufio.Reader
	w       io.Writer
}

// New returns a Console bound to session, reading lines from r and
// writing output to w.
func New(session *camcore.Session, r io.Reader, w io.Writer) *Console {
	return &Console{session: session, r: bufio.NewReader(r), w: w}
}

// Run processes command lines until r returns an error (typically EOF on
// UART disconnect).
func (c *Console) Run() error {
	for {
		line, err := c.r.ReadString('\n')
		if len(line) > 0 {
			c.dispatch(line)
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) dispatch(line string) {
	args, err := shlex.Split(line)
	if err != nil || len(args) == 0 {
		return
	}

	switch args[0] {
	case "capture":
		c.cmdCapture()
	case "stats":
		c.cmdStats()
	case "quality":
		c.cmdQuality(args[1:])
	default:
		fmt.Fprintf(c.w, "unknown command %q\n", args[0])
	}
}

func (c *Console) cmdCapture() {
	fb, err := c.session.Acquire()
	if err != nil {
		fmt.Fprintf(c.w, "capture error: %v\n", err)
		return
	}
	defer fb.Release()
	fmt.Fprintf(c.w, "captured %dx%d %s, %d bytes\n", fb.Width(), fb.Height(), fb.Format(), fb.Length())
}

func (c *Console) cmdStats() {
	st := c.session.Stats()
	fmt.Fprintf(c.w, "acquired=%d bad=%d timeouts=%d restarts=%d\n",
		st.FramesAcquired, st.FramesBad, st.Timeouts, st.Restarts)
}

func (c *Console) cmdQuality(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.w, "usage: quality N")
		return
	}
	q, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(c.w, "bad quality %q\n", args[0])
		return
	}
	if err := c.session.RecalculateCompression(q); err != nil {
		fmt.Fprintf(c.w, "quality error: %v\n", err)
		return
	}
	fmt.Fprintf(c.w, "quality set to %d\n", q)
}
