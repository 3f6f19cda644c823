package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/unkn0wn-root/writebehind"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := LogrusLogger{E: logrus.NewEntry(base)}

	l.Warn("no consumer is running", writebehind.Fields{"queue": "writes"})
	l.Debug("consumer stopped", nil)

	require.Len(t, hook.AllEntries(), 2)
	first := hook.AllEntries()[0]
	require.Equal(t, logrus.WarnLevel, first.Level)
	require.Equal(t, "writes", first.Data["queue"])
	require.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}
