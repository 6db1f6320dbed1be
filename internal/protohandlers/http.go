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
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

// fakeLoginHTML is byte-for-byte the admin panel page served by the
// original firmware's http_service.c.
const fakeLoginHTML = "<!DOCTYPE html>\n" +
	"<html lang='en'>\n" +
	"<head>\n" +
	"    <meta charset='UTF-8'>\n" +
	"    <meta name='viewport' content='width=device-width, initial-scale=1.0'>\n" +
	"    <title>Router Admin Panel</title>\n" +
	"    <style>\n" +
	"        body { font-family: Arial, sans-serif; margin: 40px; }\n" +
	"        .container { max-width: 400px; margin: 0 auto; padding: 20px; border: 1px solid #ccc; }\n" +
	"        .error { color: red; margin-top: 10px; }\n" +
	"    </style>\n" +
	"</head>\n" +
	"<body>\n" +
	"    <div class='container'>\n" +
	"        <h2>Router Administration</h2>\n" +
	"        <div class='error'>Access Denied: Invalid credentials</div>\n" +
	"        <p>Please contact your network administrator.</p>\n" +
	"    </div>\n" +
	"</body>\n" +
	"</html>"

const badRequestHTML = "<html><body><h1>Error</h1><p>An error occurred.</p></body></html>"

const maxMethodLen = 15
const maxPathLen = 127

// usernameKeys and passwordKeys are two separate lists, per the Open
// Question's resolution: the original indexes one array at i=0..3 for
// username and i=4..7 for password; here that's just two slices.
var usernameKeys = []string{"username=", "user=", "login=", "uname="}
var passwordKeys = []string{"password=", "pass=", "pwd=", "passwd="}

func buildHTTPResponse(code int, reason, body string) []byte {
	return []byte(fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: text/html\r\nContent-Length: %d\r\nConnection: close\r\nServer: Apache/2.4.41 (Ubuntu)\r\n\r\n%s",
		code, reason, len(body), body,
	))
}

type httpRequest struct {
	method        string
	path          string
	userAgent     string
	authorization string
	body          string
	ok            bool
}

func parseHTTPRequest(raw string) httpRequest {
	lines := strings.SplitN(raw, "\r\n", 2)
	if len(lines) == 0 {
		return httpRequest{}
	}
	requestLine := strings.Fields(lines[0])
	if len(requestLine) < 2 || !strings.HasPrefix(requestLine[1], "/") {
		return httpRequest{}
	}

	req := httpRequest{
		method: truncateAt(requestLine[0], maxMethodLen),
		path:   truncateAt(requestLine[1], maxPathLen),
		ok:     true,
	}

	rest := ""
	if len(lines) > 1 {
		rest = lines[1]
	}

	headerBlock := rest
	body := ""
	if idx := strings.Index(rest, "\r\n\r\n"); idx >= 0 {
		headerBlock = rest[:idx]
		body = rest[idx+4:]
	}

	for _, line := range strings.Split(headerBlock, "\r\n") {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimLeft(value, " ")
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "user-agent":
			req.userAgent = truncateAt(value, 255)
		case "authorization":
			req.authorization = truncateAt(value, 255)
		}
	}

	req.body = body
	return req
}

func truncateAt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// extractCredentialsFromPost resolves the Open Question on overwriting
// matches by keeping the FIRST matching pattern per field instead of the
// last, and uses two independent key lists rather than slicing one array.
func extractCredentialsFromPost(body string) (username, password string) {
	username = firstMatch(body, usernameKeys)
	password = firstMatch(body, passwordKeys)
	return
}

func firstMatch(body string, keys []string) string {
	for _, key := range keys {
		idx := strings.Index(body, key)
		if idx < 0 {
			continue
		}
		start := idx + len(key)
		value := body[start:]
		end := strings.IndexAny(value, "& ")
		if end >= 0 {
			value = value[:end]
		}
		return urlDecode(value)
	}
	return ""
}

func urlDecode(s string) string {
	decoded, err := url.QueryUnescape(strings.ReplaceAll(s, "+", " "))
	if err != nil {
		return s
	}
	return decoded
}

var suspiciousSubstrings = []string{"/shell", "/cmd", "/exec", ".."}

func isSuspiciousPath(path string) bool {
	for _, sub := range suspiciousSubstrings {
		if strings.Contains(path, sub) {
			return true
		}
	}
	return false
}

// HandleHTTP implements the single-shot HTTP admin-panel emulation: parse
// the request, flag suspicious paths, extract POST credentials, and always
// answer with the fake login page before closing the connection.
func HandleHTTP(sess *session.Session, in []byte, now time.Time) Result {
	raw := string(in)
	req := parseHTTPRequest(raw)

	if !req.ok {
		return Result{
			Reply: buildHTTPResponse(400, "Bad Request", badRequestHTML),
			Close: true,
		}
	}

	var warnings []string
	if isSuspiciousPath(req.path) {
		warnings = append(warnings, "potential path traversal attack: "+req.path)
	}

	username, password := "", ""
	if strings.EqualFold(req.method, "POST") {
		username, password = extractCredentialsFromPost(req.body)
	}
	if password == "" && req.authorization != "" {
		password = req.authorization
	}

	rec := attacklog.New(
		now,
		sess.PeerIP,
		sess.Port,
		protocol.HTTP,
		username,
		password,
		req.userAgent,
		attacklog.HashPayload(in),
		"Method: "+req.method+", Path: "+req.path,
	)

	return Result{
		Reply:    buildHTTPResponse(403, "Forbidden", fakeLoginHTML),
		Close:    true,
		Record:   &rec,
		Warnings: warnings,
	}
}
