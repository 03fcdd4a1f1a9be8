package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cep-resolver/internal/circuitbreaker"
)

var _ = Describe("CircuitBreaker", func() {
	var (
		cb  *circuitbreaker.CircuitBreaker
		now time.Time
	)

	advance := func(d time.Duration) { now = now.Add(d) }

	trip := func() {
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordFailure()
		Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
	}

	BeforeEach(func() {
		now = time.Date(2025, 10, 7, 10, 0, 0, 0, time.UTC)
		cb = circuitbreaker.NewCircuitBreaker(3, 100*time.Millisecond)
		cb.SetClock(func() time.Time { return now })
	})

	Describe("NewCircuitBreaker", func() {
		It("should create a circuit breaker in closed state", func() {
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Failures()).To(Equal(0))
		})

		It("should clamp the threshold to at least one failure", func() {
			single := circuitbreaker.NewCircuitBreaker(0, time.Second)
			single.RecordFailure()
			Expect(single.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Context("when in CLOSED state", func() {
		It("should allow requests", func() {
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should remain closed after failures below threshold", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should transition to OPEN after reaching failure threshold", func() {
			trip()
		})
	})

	Context("when in OPEN state", func() {
		BeforeEach(trip)

		It("should block requests", func() {
			Expect(cb.Allow()).To(BeFalse())
		})

		It("should remain OPEN before reset timeout expires", func() {
			advance(50 * time.Millisecond)
			Expect(cb.Allow()).To(BeFalse())
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should transition to HALF-OPEN after reset timeout", func() {
			advance(150 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})
	})

	Context("when in HALF-OPEN state", func() {
		BeforeEach(func() {
			trip()
			advance(150 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should hold further requests while the trial request is in flight", func() {
			Expect(cb.Allow()).To(BeFalse())
		})

		It("should transition to CLOSED on success", func() {
			cb.RecordSuccess()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should transition back to OPEN on failure", func() {
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(cb.Allow()).To(BeFalse())
		})
	})

	Describe("Release", func() {
		It("should return an unfinished trial request to OPEN and allow the next one", func() {
			trip()
			advance(150 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))

			cb.Release()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(cb.Failures()).To(Equal(3))

			Expect(cb.Allow()).To(BeTrue())
			cb.RecordSuccess()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should leave a closed circuit untouched", func() {
			cb.RecordFailure()
			cb.Release()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Failures()).To(Equal(1))
			Expect(cb.Allow()).To(BeTrue())
		})
	})

	Describe("RecordSuccess", func() {
		It("should reset failure count", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			Expect(cb.Failures()).To(Equal(0))

			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("State.String", func() {
		It("should return correct string representation", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF-OPEN"))
			Expect(circuitbreaker.State(42).String()).To(Equal("UNKNOWN"))
		})

		It("should marshal as text", func() {
			text, err := circuitbreaker.StateOpen.MarshalText()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(text)).To(Equal("OPEN"))
		})
	})
})
