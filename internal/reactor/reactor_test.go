package reactor_test

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/blackfennetworks/honeytrap/internal/clock"
	"github.com/blackfennetworks/honeytrap/internal/logstore"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/ratelimit"
	"github.com/blackfennetworks/honeytrap/internal/reactor"
)

func TestReactor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "reactor Suite")
}

// freePort asks the OS for an ephemeral port and immediately releases it;
// good enough for a test that binds moments later.
func freePort() uint16 {
	l, err := net.Listen("tcp", ":0")
	Expect(err).NotTo(HaveOccurred())
	defer l.Close()
	return uint16(l.Addr().(*net.TCPAddr).Port)
}

func newTestReactor(table protocol.Table, ports []uint16) *reactor.Reactor {
	limiter := ratelimit.New(10*time.Second, 10)
	store := logstore.New(64, logstore.NewMemoryFlash(), nil)

	cfg := reactor.Config{
		Ports:             ports,
		Table:             table,
		MaxConnections:    32,
		ConnectionTimeout: 2 * time.Second,
		EnableLogging:     true,
	}
	return reactor.New(cfg, clock.NewSystem(), limiter, store, nil)
}

var _ = Describe("Reactor end-to-end", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	It("captures HTTP POST credentials", func() {
		port := freePort()
		table := protocol.Table{port: protocol.HTTP}
		r := newTestReactor(table, []uint16{port})
		Expect(r.Start(ctx)).To(Succeed())
		defer r.Stop()

		time.Sleep(50 * time.Millisecond)
		conn, err := net.DialTimeout("tcp", addrFor(port), time.Second)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		req := "POST /login HTTP/1.1\r\nHost: x\r\nContent-Length: 29\r\n\r\nusername=admin&password=1234"
		_, err = conn.Write([]byte(req))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 4096)
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _ := conn.Read(buf)
		Expect(string(buf[:n])).To(ContainSubstring("403 Forbidden"))

		Eventually(func() uint64 { return r.Snapshot().HTTPAttacks }, time.Second).Should(Equal(uint64(1)))
	})

	It("runs a telnet two-line login to rejection", func() {
		port := freePort()
		table := protocol.Table{port: protocol.TELNET}
		r := newTestReactor(table, []uint16{port})
		Expect(r.Start(ctx)).To(Succeed())
		defer r.Stop()

		time.Sleep(50 * time.Millisecond)
		conn, err := net.DialTimeout("tcp", addrFor(port), time.Second)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		reader := bufio.NewReader(conn)
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		banner := make([]byte, 64)
		n, _ := reader.Read(banner)
		Expect(string(banner[:n])).To(ContainSubstring("login:"))

		_, err = conn.Write([]byte("root\r\n"))
		Expect(err).NotTo(HaveOccurred())
		n, _ = reader.Read(banner)
		Expect(string(banner[:n])).To(ContainSubstring("Password:"))

		_, err = conn.Write([]byte("toor\r\n"))
		Expect(err).NotTo(HaveOccurred())
		n, _ = reader.Read(banner)
		Expect(string(banner[:n])).To(ContainSubstring("Login incorrect"))

		Eventually(func() uint64 { return r.Snapshot().TelnetAttacks }, time.Second).Should(Equal(uint64(1)))
	})

	It("runs FTP USER/PASS to rejection", func() {
		port := freePort()
		table := protocol.Table{port: protocol.FTP}
		r := newTestReactor(table, []uint16{port})
		Expect(r.Start(ctx)).To(Succeed())
		defer r.Stop()

		time.Sleep(50 * time.Millisecond)
		conn, err := net.DialTimeout("tcp", addrFor(port), time.Second)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		reader := bufio.NewReader(conn)
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 64)
		n, _ := reader.Read(buf)
		Expect(string(buf[:n])).To(ContainSubstring("220 FTP Server Ready"))

		_, err = conn.Write([]byte("USER admin\r\nPASS hunter2\r\n"))
		Expect(err).NotTo(HaveOccurred())

		n, _ = reader.Read(buf)
		Expect(string(buf[:n])).To(ContainSubstring("331 Password required for admin"))
		n, _ = reader.Read(buf)
		Expect(string(buf[:n])).To(ContainSubstring("530 Login incorrect"))

		Eventually(func() uint64 { return r.Snapshot().FTPAttacks }, time.Second).Should(Equal(uint64(1)))
	})

	It("rate-limits a flood from the same source IP", func() {
		port := freePort()
		table := protocol.Table{port: protocol.HTTP}
		limiter := ratelimit.New(10*time.Second, 10)
		store := logstore.New(64, logstore.NewMemoryFlash(), nil)
		cfg := reactor.Config{
			Ports:             []uint16{port},
			Table:             table,
			MaxConnections:    64,
			ConnectionTimeout: 2 * time.Second,
			EnableLogging:     true,
		}
		r := reactor.New(cfg, clock.NewSystem(), limiter, store, nil)
		Expect(r.Start(ctx)).To(Succeed())
		defer r.Stop()

		time.Sleep(50 * time.Millisecond)

		for i := 0; i < 11; i++ {
			conn, err := net.DialTimeout("tcp", addrFor(port), time.Second)
			Expect(err).NotTo(HaveOccurred())
			conn.Close()
		}

		Eventually(func() uint64 { return r.Snapshot().RateLimited }, 2*time.Second).Should(BeNumerically(">=", uint64(1)))
	})
})

func addrFor(port uint16) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port)))
}
