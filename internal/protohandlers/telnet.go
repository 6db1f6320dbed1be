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

package protohandlers

import (
	"strings"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

// TelnetBanner is sent verbatim, followed by the "login: " prompt, when a
// Telnet session is accepted, before any data is read.
const TelnetBanner = "\r\nWelcome to Device Login\r\n\r\n"
const telnetLoginPrompt = "login: "
const telnetPasswordPrompt = "Password: "
const telnetRejectMsg = "Login incorrect\r\n"

type telnetStage uint8

const (
	telnetAwaitUser telnetStage = iota
	telnetAwaitPass
	telnetRejected
)

// telnetState is the HandlerState stashed on the Session between calls; a
// session may receive its username and password in separate reads.
type telnetState struct {
	stage    telnetStage
	username string
	buf      []byte
}

// HandleTelnet drives the AWAIT_USER -> AWAIT_PASS -> REJECT -> CLOSE state
// machine. in is appended to any previously buffered partial line; only
// complete CRLF- or LF-terminated lines are consumed.
func HandleTelnet(sess *session.Session, in []byte, now time.Time) Result {
	st, _ := sess.HandlerState.(*telnetState)
	if st == nil {
		st = &telnetState{stage: telnetAwaitUser}
		sess.HandlerState = st
	}
	st.buf = append(st.buf, in...)

	line, rest, hasLine := cutLine(st.buf)
	if !hasLine {
		return Result{}
	}
	st.buf = rest

	switch st.stage {
	case telnetAwaitUser:
		st.username = line
		st.stage = telnetAwaitPass
		return Result{Reply: []byte(telnetPasswordPrompt)}
	case telnetAwaitPass:
		password := line
		st.stage = telnetRejected
		rec := attacklog.New(now, sess.PeerIP, sess.Port, protocol.TELNET, st.username, password, "", attacklog.HashPayload(in), "")
		return Result{
			Reply:  []byte(telnetRejectMsg),
			Close:  true,
			Record: &rec,
		}
	default:
		return Result{Close: true}
	}
}

// cutLine extracts the first line terminated by \n (optionally preceded by
// \r), trimmed of surrounding whitespace. hasLine is false when buf holds
// no terminator yet, in which case buf itself is returned unchanged as the
// remainder to preserve partial reads across calls.
func cutLine(buf []byte) (line string, rest []byte, hasLine bool) {
	idx := -1
	for i, b := range buf {
		if b == '\n' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", buf, false
	}
	raw := string(buf[:idx])
	raw = strings.TrimSuffix(raw, "\r")
	return strings.TrimSpace(raw), buf[idx+1:], true
}
