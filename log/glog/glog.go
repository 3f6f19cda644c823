// Package glog adapts github.com/golang/glog to writebehind.Logger.
//
// glog has no debug level; Debug lines go to V(Verbosity).
package glog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/unkn0wn-root/writebehind"
)

var _ writebehind.Logger = Logger{}

type Logger struct {
	// Verbosity used for Debug; 0 => 2.
	Verbosity glog.Level
}

func (l Logger) Debug(msg string, f writebehind.Fields) {
	v := l.Verbosity
	if v == 0 {
		v = 2
	}
	if glog.V(v) {
		glog.InfoDepth(1, line(msg, f))
	}
}

func (l Logger) Info(msg string, f writebehind.Fields)  { glog.InfoDepth(1, line(msg, f)) }
func (l Logger) Warn(msg string, f writebehind.Fields)  { glog.WarningDepth(1, line(msg, f)) }
func (l Logger) Error(msg string, f writebehind.Fields) { glog.ErrorDepth(1, line(msg, f)) }

// line renders msg followed by key=value pairs in key order.
func line(msg string, f writebehind.Fields) string {
	if len(f) == 0 {
		return msg
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, f[k])
	}
	return b.String()
}
