package antivirus

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"time"
)

// clamd rejects INSTREAM chunks above StreamMaxLength; keep chunks small.
const chunkSize = 64 * 1024

// ClamAVScanner streams content to a clamd daemon with zINSTREAM.
type ClamAVScanner struct {
	address string // host:port or a unix socket path
	timeout time.Duration
}

var _ Scanner = (*ClamAVScanner)(nil)

func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{address: address, timeout: timeout}
}

func (c *ClamAVScanner) Name() string { return "clamav" }

func (c *ClamAVScanner) dial(ctx context.Context) (net.Conn, error) {
	network := "tcp"
	if strings.HasPrefix(c.address, "/") {
		network = "unix"
	}
	d := net.Dialer{Timeout: c.timeout}
	return d.DialContext(ctx, network, c.address)
}

func (c *ClamAVScanner) Scan(ctx context.Context, _ string, data []byte) ScanResult {
	result := ScanResult{ScannerName: c.Name()}
	fail := func(err error) ScanResult {
		result.Infected = true
		result.Error = err
		return result
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return fail(fmt.Errorf("connect clamd: %w", err))
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString("zINSTREAM\x00"); err != nil {
		return fail(fmt.Errorf("send command: %w", err))
	}
	var size [4]byte
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		binary.BigEndian.PutUint32(size[:], uint32(end-off))
		if _, err := w.Write(size[:]); err != nil {
			return fail(fmt.Errorf("send chunk size: %w", err))
		}
		if _, err := w.Write(data[off:end]); err != nil {
			return fail(fmt.Errorf("send chunk: %w", err))
		}
	}
	binary.BigEndian.PutUint32(size[:], 0)
	if _, err := w.Write(size[:]); err != nil {
		return fail(fmt.Errorf("send terminator: %w", err))
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flush: %w", err))
	}

	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && reply == "" {
		return fail(fmt.Errorf("read reply: %w", err))
	}
	return parseReply(result, strings.TrimRight(reply, "\x00\n "))
}

// parseReply handles "stream: OK", "stream: <name> FOUND" and "... ERROR".
func parseReply(result ScanResult, reply string) ScanResult {
	body := reply
	if i := strings.Index(reply, ":"); i >= 0 {
		body = strings.TrimSpace(reply[i+1:])
	}
	switch {
	case strings.HasSuffix(body, "FOUND"):
		result.Infected = true
		result.ThreatName = strings.TrimSpace(strings.TrimSuffix(body, "FOUND"))
	case strings.HasSuffix(body, "ERROR"), body != "OK":
		result.Infected = true
		result.Error = fmt.Errorf("clamd: %s", reply)
	}
	return result
}
