package ratelimit_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/blackfennetworks/honeytrap/internal/ratelimit"
)

func TestRateLimit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ratelimit Suite")
}

var _ = Describe("Limiter", func() {
	var (
		lim *ratelimit.Limiter
		now time.Time
	)

	BeforeEach(func() {
		now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		lim = ratelimit.New(60*time.Second, 10)
	})

	Context("within the window", func() {
		It("admits up to the configured maximum and denies the next", func() {
			for i := 0; i < 10; i++ {
				Expect(lim.Check("1.2.3.4", now)).To(Equal(ratelimit.Admit))
				now = now.Add(time.Second)
			}
			Expect(lim.Check("1.2.3.4", now)).To(Equal(ratelimit.Deny))
		})

		It("tracks each source IP independently", func() {
			for i := 0; i < 10; i++ {
				Expect(lim.Check("1.1.1.1", now)).To(Equal(ratelimit.Admit))
			}
			Expect(lim.Check("1.1.1.1", now)).To(Equal(ratelimit.Deny))
			Expect(lim.Check("2.2.2.2", now)).To(Equal(ratelimit.Admit))
		})
	})

	Context("at the window boundary", func() {
		It("admits a connection evicted exactly at the boundary (eviction before count check)", func() {
			for i := 0; i < 10; i++ {
				lim.Check("9.9.9.9", now)
			}
			Expect(lim.Check("9.9.9.9", now)).To(Equal(ratelimit.Deny))

			now = now.Add(60 * time.Second)
			Expect(lim.Check("9.9.9.9", now)).To(Equal(ratelimit.Admit))
		})
	})

	Describe("bucket garbage collection", func() {
		It("drops buckets once they age out of the window", func() {
			lim.Check("3.3.3.3", now)
			Expect(lim.BucketCount()).To(Equal(1))

			later := now.Add(2 * time.Minute)
			// touching a different IP triggers the opportunistic sweep
			lim.Check("4.4.4.4", later)
			lim.Check("5.5.5.5", later)

			found := false
			for i := 0; i < 20; i++ {
				lim.Check("ip-filler", later)
				if lim.BucketCount() < 4 {
					found = true
				}
			}
			Expect(found).To(BeTrue(), "expected the stale 3.3.3.3 bucket to be swept eventually")
		})

		It("bounds total distinct buckets to 4x the per-IP cap", func() {
			base := now
			for i := 0; i < 100; i++ {
				ip := time.Duration(i).String()
				lim.Check(ip, base)
				base = base.Add(time.Millisecond)
			}
			Expect(lim.BucketCount()).To(BeNumerically("<=", 40))
		})
	})
})
