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

// Package metrics exposes the reactor's Stats block as Prometheus
// collectors, polled on demand rather than pushed, since Stats already
// lives behind the reactor's own mutex.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blackfennetworks/honeytrap/internal/reactor"
)

// Collector adapts a *reactor.Reactor's Snapshot into Prometheus gauges
// and counters, collected fresh on every scrape.
type Collector struct {
	r *reactor.Reactor

	totalConnections *prometheus.Desc
	attacksLogged    *prometheus.Desc
	rateLimited      *prometheus.Desc
	attacksByService *prometheus.Desc
	openConnections  *prometheus.Desc
}

// NewCollector builds a Collector over r. Register it with a
// prometheus.Registry to expose it on a /metrics endpoint.
func NewCollector(r *reactor.Reactor) *Collector {
	return &Collector{
		r: r,
		totalConnections: prometheus.NewDesc(
			"honeytrap_total_connections", "Total accepted connections since start.", nil, nil),
		attacksLogged: prometheus.NewDesc(
			"honeytrap_attacks_logged_total", "Total AttackRecords emitted.", nil, nil),
		rateLimited: prometheus.NewDesc(
			"honeytrap_rate_limited_total", "Total connections rejected by the rate limiter.", nil, nil),
		attacksByService: prometheus.NewDesc(
			"honeytrap_attacks_by_service_total", "Attacks logged, broken down by emulated service.", []string{"service"}, nil),
		openConnections: prometheus.NewDesc(
			"honeytrap_open_connections", "Currently open sessions.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConnections
	ch <- c.attacksLogged
	ch <- c.rateLimited
	ch <- c.attacksByService
	ch <- c.openConnections
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.r.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.totalConnections, prometheus.CounterValue, float64(s.TotalConnections))
	ch <- prometheus.MustNewConstMetric(c.attacksLogged, prometheus.CounterValue, float64(s.AttacksLogged))
	ch <- prometheus.MustNewConstMetric(c.rateLimited, prometheus.CounterValue, float64(s.RateLimited))
	ch <- prometheus.MustNewConstMetric(c.openConnections, prometheus.GaugeValue, float64(c.r.OpenConnections()))

	ch <- prometheus.MustNewConstMetric(c.attacksByService, prometheus.CounterValue, float64(s.HTTPAttacks), "HTTP")
	ch <- prometheus.MustNewConstMetric(c.attacksByService, prometheus.CounterValue, float64(s.TelnetAttacks), "TELNET")
	ch <- prometheus.MustNewConstMetric(c.attacksByService, prometheus.CounterValue, float64(s.FTPAttacks), "FTP")
	ch <- prometheus.MustNewConstMetric(c.attacksByService, prometheus.CounterValue, float64(s.MQTTAttacks), "MQTT")
}
