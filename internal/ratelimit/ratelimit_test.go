package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cep-resolver/internal/ratelimit"
)

var _ = Describe("Store", func() {
	It("should reuse the bucket per key", func() {
		store := ratelimit.NewStore(1, 1)
		Expect(store.Limiter("a")).To(BeIdenticalTo(store.Limiter("a")))
		Expect(store.Limiter("a")).NotTo(BeIdenticalTo(store.Limiter("b")))
		Expect(store.Len()).To(Equal(2))
	})

	It("should drop idle buckets", func() {
		now := time.Now()
		store := ratelimit.NewStore(1, 1, ratelimit.WithIdleTTL(time.Minute))
		store.SetClock(func() time.Time { return now })

		store.Limiter("idle")
		now = now.Add(30 * time.Second)
		store.Limiter("active")
		now = now.Add(45 * time.Second)

		Expect(store.Cleanup()).To(Equal(1))
		Expect(store.Len()).To(Equal(1))
	})

	It("should stop the janitor with the context", func() {
		store := ratelimit.NewStore(1, 1, ratelimit.WithCleanupEvery(5*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		go func() {
			store.Run(ctx)
			close(done)
		}()
		cancel()

		Eventually(done).Should(BeClosed())
	})
})

var _ = Describe("Middleware", func() {
	var handler http.Handler

	BeforeEach(func() {
		store := ratelimit.NewStore(1, 2)
		handler = ratelimit.Middleware(ratelimit.Options{Store: store})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
	})

	request := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/cep/01310100", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("should admit the burst then reject with Retry-After", func() {
		Expect(request("192.0.2.1:1000").Code).To(Equal(http.StatusOK))
		Expect(request("192.0.2.1:1001").Code).To(Equal(http.StatusOK))

		rejected := request("192.0.2.1:1002")
		Expect(rejected.Code).To(Equal(http.StatusTooManyRequests))
		Expect(rejected.Header().Get("Retry-After")).To(Equal("1"))
	})

	It("should limit clients independently", func() {
		request("192.0.2.1:1000")
		request("192.0.2.1:1000")
		Expect(request("192.0.2.1:1000").Code).To(Equal(http.StatusTooManyRequests))
		Expect(request("192.0.2.2:1000").Code).To(Equal(http.StatusOK))
	})

	It("should use a custom rejection", func() {
		handler = ratelimit.Middleware(ratelimit.Options{
			Store: ratelimit.NewStore(1, 0),
			Reject: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}),
		})(http.NotFoundHandler())

		Expect(request("192.0.2.1:1000").Code).To(Equal(http.StatusTeapot))
	})
})
