package output

import "io"

// flushLine pushes a finished line to the terminal or file right away when
// the writer buffers, so progress and NDJSON events show up as each
// repository completes rather than when the run ends.
func flushLine(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
