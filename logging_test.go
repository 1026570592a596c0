package impostor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/impostor/impostorrt/rt/bake"
)

var _ bake.Logger = Logger(nil)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger("impostor", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("baked %d cells", 4)
	l.Warnf("slow")
	l.Errorf("failed: %v", "boom")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[impostor] INFO: baked 4 cells")
	assert.Contains(t, errOut.String(), "[impostor] WARN: slow")
	assert.Contains(t, errOut.String(), "[impostor] ERROR: failed: boom")
}

func TestDefaultLoggerDebugToggle(t *testing.T) {
	var out bytes.Buffer
	l := NewWriterLogger("", false, &out, &out)
	assert.False(t, l.DebugEnabled())

	l.SetDebug(true)
	l.Debugf("cell %d", 3)
	assert.True(t, l.DebugEnabled())
	assert.Contains(t, out.String(), "DEBUG: cell 3")
}

func TestNopLogger(t *testing.T) {
	l := orNop(nil)
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	l.Infof("ignored")
}
