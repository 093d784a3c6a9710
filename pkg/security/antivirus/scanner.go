package antivirus

import "context"

type ScanResult struct {
	Infected    bool
	ThreatName  string
	ScannerName string
	Error       error
}

// Scanner inspects uploaded content. A non-nil Error must be treated as
// infected by callers.
type Scanner interface {
	Scan(ctx context.Context, filename string, data []byte) ScanResult
	Name() string
}

// NoOpScanner accepts everything. Used when no clamd address is configured.
type NoOpScanner struct{}

var _ Scanner = NoOpScanner{}

func (NoOpScanner) Scan(_ context.Context, _ string, _ []byte) ScanResult {
	return ScanResult{ScannerName: "noop"}
}

func (NoOpScanner) Name() string { return "noop" }

// New returns a clamd scanner for addr, or a NoOpScanner when addr is empty.
func New(addr string) Scanner {
	if addr == "" {
		return NoOpScanner{}
	}
	return NewClamAVScanner(addr, 0)
}
