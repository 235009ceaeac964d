package runner

import "bytes"

// capturedOutput keeps the first max bytes a VCS command prints on one
// stream. The rest is swallowed so a chatty clone never blocks on a full
// pipe, and dropped records that it happened.
type capturedOutput struct {
	buf     bytes.Buffer
	max     int
	dropped bool
}

func (c *capturedOutput) Write(p []byte) (int, error) {
	room := c.max - c.buf.Len()
	if room < len(p) {
		c.dropped = true
		if room <= 0 {
			return len(p), nil
		}
		c.buf.Write(p[:room])
		// Report the whole chunk as written or exec's copier stops early.
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *capturedOutput) Bytes() []byte { return c.buf.Bytes() }
