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

// Package duration adds days notation to time.Duration's string form, for
// logging connection timeouts and rate-limit windows in a more readable
// shape than raw milliseconds ("2d3h0m0s" rather than "183600000").
package duration

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration, adding a days-aware String.
type Duration time.Duration

// ParseDuration lifts a time.Duration into a Duration.
func ParseDuration(d time.Duration) Duration {
	return Duration(d)
}

// Time returns the underlying time.Duration.
func (d Duration) Time() time.Duration {
	return time.Duration(d)
}

// Days returns the whole number of 24h periods in d, truncated toward
// zero. Integer division on the nanosecond count, not a float Hours()
// division, so the result is exact at any magnitude time.Duration holds.
func (d Duration) Days() int64 {
	return int64(time.Duration(d) / (24 * time.Hour))
}

// String renders d as "<N>d<remainder>", omitting the day count when it is
// zero and the remainder when it is exactly N whole days.
func (d Duration) String() string {
	whole := time.Duration(d)
	days := d.Days()
	if days == 0 {
		return whole.String()
	}

	remainder := whole - time.Duration(days)*24*time.Hour
	if remainder == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%s", days, remainder)
}
