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

// FTPBanner is sent verbatim when an FTP session is accepted.
const FTPBanner = "220 FTP Server Ready\r\n"

type ftpState struct {
	username string
	anyCred  bool
	buf      []byte
}

// HandleFTP dispatches one complete CRLF-terminated command line at a time,
// buffering any partial line across calls the same way Telnet does.
func HandleFTP(sess *session.Session, in []byte, now time.Time) Result {
	st, _ := sess.HandlerState.(*ftpState)
	if st == nil {
		st = &ftpState{}
		sess.HandlerState = st
	}
	st.buf = append(st.buf, in...)

	line, rest, hasLine := cutLine(st.buf)
	if !hasLine {
		return Result{}
	}
	st.buf = rest

	cmd, arg, _ := strings.Cut(line, " ")
	cmd = strings.ToUpper(strings.TrimSpace(cmd))
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "USER":
		st.username = arg
		st.anyCred = true
		return Result{Reply: []byte("331 Password required for " + arg + "\r\n")}
	case "PASS":
		st.anyCred = true
		rec := attacklog.New(now, sess.PeerIP, sess.Port, protocol.FTP, st.username, arg, "", attacklog.HashPayload(in), "")
		return Result{
			Reply:  []byte("530 Login incorrect\r\n"),
			Close:  true,
			Record: &rec,
		}
	case "QUIT":
		var rec *attacklog.Record
		if st.anyCred {
			r := attacklog.New(now, sess.PeerIP, sess.Port, protocol.FTP, st.username, "", "", attacklog.HashPayload(in), "")
			rec = &r
		}
		return Result{
			Reply:  []byte("221 Goodbye\r\n"),
			Close:  true,
			Record: rec,
		}
	default:
		return Result{Reply: []byte("502 Command not implemented\r\n")}
	}
}
