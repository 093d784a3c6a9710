package antivirus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReply(t *testing.T) {
	clean := parseReply(ScanResult{}, "stream: OK")
	assert.False(t, clean.Infected)
	assert.NoError(t, clean.Error)

	found := parseReply(ScanResult{}, "stream: Eicar-Signature FOUND")
	assert.True(t, found.Infected)
	assert.Equal(t, "Eicar-Signature", found.ThreatName)
	assert.NoError(t, found.Error)

	broken := parseReply(ScanResult{}, "INSTREAM size limit exceeded. ERROR")
	assert.True(t, broken.Infected)
	assert.Error(t, broken.Error)
}

func TestNew_NoAddressIsNoOp(t *testing.T) {
	s := New("")
	assert.Equal(t, "noop", s.Name())
	assert.False(t, s.Scan(context.Background(), "cv.pdf", []byte("%PDF")).Infected)
}
