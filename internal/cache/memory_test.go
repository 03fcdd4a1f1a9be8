package cache_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cep-resolver/internal/cache"
)

var _ = Describe("Memory", func() {
	var (
		ctx   context.Context
		c     *cache.Memory
		clock time.Time
		key   = cache.Key("01310100")
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		c = cache.NewMemory(time.Minute, 3)
		c.SetClock(func() time.Time { return clock })
	})

	It("should miss on an empty cache", func() {
		_, ok, err := c.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should return what was stored", func() {
		Expect(c.Set(ctx, key, paulista(), time.Hour)).To(Succeed())

		got, ok, err := c.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(paulista()))
	})

	It("should overwrite wholesale", func() {
		Expect(c.Set(ctx, key, paulista(), time.Hour)).To(Succeed())
		updated := paulista()
		updated.Source = "BrasilAPI"
		updated.IBGECode = nil
		Expect(c.Set(ctx, key, updated, time.Hour)).To(Succeed())

		got, _, _ := c.Get(ctx, key)
		Expect(got).To(Equal(updated))
		Expect(c.Len()).To(Equal(1))
	})

	Context("expiry", func() {
		It("should expire after the ttl", func() {
			Expect(c.Set(ctx, key, paulista(), 24*time.Hour)).To(Succeed())

			clock = clock.Add(24*time.Hour - time.Second)
			_, ok, _ := c.Get(ctx, key)
			Expect(ok).To(BeTrue())

			clock = clock.Add(time.Second)
			_, ok, _ = c.Get(ctx, key)
			Expect(ok).To(BeFalse())
			Expect(c.Len()).To(BeZero())
		})

		It("should use the default ttl when ttl is not positive", func() {
			Expect(c.Set(ctx, key, paulista(), 0)).To(Succeed())

			clock = clock.Add(59 * time.Second)
			_, ok, _ := c.Get(ctx, key)
			Expect(ok).To(BeTrue())

			clock = clock.Add(time.Second)
			_, ok, _ = c.Get(ctx, key)
			Expect(ok).To(BeFalse())
		})

		It("should sweep expired entries", func() {
			Expect(c.Set(ctx, cache.Key("1"), paulista(), time.Second)).To(Succeed())
			Expect(c.Set(ctx, cache.Key("2"), paulista(), time.Hour)).To(Succeed())

			clock = clock.Add(2 * time.Second)
			Expect(c.RemoveExpired()).To(Equal(1))
			Expect(c.Len()).To(Equal(1))
		})

		It("should stop the janitor with the context", func() {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				c.Run(runCtx, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
				close(done)
			}()

			cancel()
			Eventually(done).Should(BeClosed())
		})
	})

	Context("bounded size", func() {
		It("should evict the entry closest to expiry", func() {
			Expect(c.Set(ctx, cache.Key("a"), paulista(), 3*time.Hour)).To(Succeed())
			Expect(c.Set(ctx, cache.Key("b"), paulista(), 1*time.Hour)).To(Succeed())
			Expect(c.Set(ctx, cache.Key("c"), paulista(), 2*time.Hour)).To(Succeed())
			Expect(c.Set(ctx, cache.Key("d"), paulista(), 4*time.Hour)).To(Succeed())

			Expect(c.Len()).To(Equal(3))
			_, ok, _ := c.Get(ctx, cache.Key("b"))
			Expect(ok).To(BeFalse())
			_, ok, _ = c.Get(ctx, cache.Key("d"))
			Expect(ok).To(BeTrue())
		})

		It("should not evict when overwriting an existing key", func() {
			for _, k := range []string{"a", "b", "c"} {
				Expect(c.Set(ctx, cache.Key(k), paulista(), time.Hour)).To(Succeed())
			}
			Expect(c.Set(ctx, cache.Key("a"), paulista(), time.Hour)).To(Succeed())
			Expect(c.Len()).To(Equal(3))
		})
	})

	It("should delete idempotently", func() {
		Expect(c.Set(ctx, key, paulista(), time.Hour)).To(Succeed())
		Expect(c.Delete(ctx, key)).To(Succeed())
		Expect(c.Delete(ctx, key)).To(Succeed())

		_, ok, _ := c.Get(ctx, key)
		Expect(ok).To(BeFalse())
	})

	It("should clear every CEP entry", func() {
		Expect(c.Set(ctx, cache.Key("1"), paulista(), time.Hour)).To(Succeed())
		Expect(c.Set(ctx, cache.Key("2"), paulista(), time.Hour)).To(Succeed())

		Expect(c.Clear(ctx)).To(Succeed())
		Expect(c.Len()).To(BeZero())
	})

	It("should be safe for concurrent use", func() {
		c = cache.NewMemory(time.Hour, 50)
		var wg sync.WaitGroup

		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 50 {
					k := cache.Key(fmt.Sprintf("%d-%d", i, j))
					_ = c.Set(ctx, k, paulista(), 0)
					_, _, _ = c.Get(ctx, k)
				}
			}()
		}
		wg.Wait()

		Expect(c.Len()).To(BeNumerically("<=", 50))
	})
})
