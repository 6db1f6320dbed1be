/*
MIT License

Copyright (c) 2024 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package hplog is the honeypot's structured logging facade: a thin,
// level-named wrapper over logrus with a colorized console hook, in the
// shape of the teacher's logger package but trimmed to the handful of
// methods the reactor and its collaborators actually call.
package hplog

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value pairs alongside a log line, mirroring
// logger.Fields.
type Fields map[string]interface{}

// Logger is the interface the rest of the honeypot depends on, so tests can
// substitute a silent or a capturing implementation.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warning(msg string, f Fields)
	Error(msg string, f Fields)
}

type logger struct {
	l *logrus.Logger
}

// Options configures the console hook.
type Options struct {
	Level        logrus.Level
	DisableColor bool
	Output       *os.File
}

// New builds a Logger writing to a colorized, colorable stdout/stderr
// wrapper (so ANSI codes survive on Windows consoles too), matching the
// teacher's hookstandard.go choice of github.com/mattn/go-colorable.
func New(opt Options) Logger {
	l := logrus.New()
	l.SetLevel(opt.Level)

	out := opt.Output
	if out == nil {
		out = os.Stdout
	}

	if opt.DisableColor {
		l.SetOutput(out)
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	} else {
		l.SetOutput(colorable.NewColorable(out))
		l.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	}

	return &logger{l: l}
}

// NewSilent builds a Logger that discards everything, for tests that don't
// want console noise.
func NewSilent() Logger {
	l := logrus.New()
	l.SetOutput(os.NewFile(0, os.DevNull))
	l.SetLevel(logrus.PanicLevel + 1)
	return &logger{l: l}
}

func (g *logger) entry(f Fields) *logrus.Entry {
	if len(f) == 0 {
		return logrus.NewEntry(g.l)
	}
	return g.l.WithFields(logrus.Fields(f))
}

func (g *logger) Debug(msg string, f Fields)   { g.entry(f).Debug(msg) }
func (g *logger) Info(msg string, f Fields)    { g.entry(f).Info(msg) }
func (g *logger) Warning(msg string, f Fields) { g.entry(f).Warning(msg) }
func (g *logger) Error(msg string, f Fields)   { g.entry(f).Error(msg) }
