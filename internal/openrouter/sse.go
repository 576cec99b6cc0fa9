package openrouter

import (
	"bufio"
	"io"
	"strings"
)

// sseScanner reads "data:" payloads from a server-sent event stream.
// Comment lines and other fields are skipped.
type sseScanner struct {
	r *bufio.Reader
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the payload of the next data line, or an error at end
// of stream.
func (s *sseScanner) Next() (string, error) {
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			return strings.TrimSpace(data), nil
		}
	}
}
