package strategy_test

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cep-resolver/internal/strategy"
)

var _ = Describe("WeightedRandom", func() {
	var (
		viaCEP    = namedProvider("ViaCEP")
		brasilAPI = namedProvider("BrasilAPI")
		correios  = namedProvider("Correios")
		weighted  []strategy.Descriptor
	)

	BeforeEach(func() {
		weighted = []strategy.Descriptor{
			{Provider: viaCEP, Weight: 70},
			{Provider: brasilAPI, Weight: 30},
		}
	})

	Context("with a deterministic draw", func() {
		DescribeTable("primary selection for 70/30",
			func(draw float64, expected []string) {
				strat := strategy.NewWeightedRandom(sequence(draw))

				selection, err := strat.Order(weighted)
				Expect(err).NotTo(HaveOccurred())
				Expect(selection.Names()).To(Equal(expected))
			},
			Entry("draw 0.65 scales to 65", 0.65, []string{"ViaCEP", "BrasilAPI"}),
			Entry("draw 0.75 scales to 75", 0.75, []string{"BrasilAPI", "ViaCEP"}),
			Entry("draw 0 picks the first", 0.0, []string{"ViaCEP", "BrasilAPI"}),
			Entry("boundary 0.70 moves past the first", 0.70, []string{"BrasilAPI", "ViaCEP"}),
		)

		It("should fall back to the first provider when rounding leaves none", func() {
			strat := strategy.NewWeightedRandom(sequence(1.0))

			selection, err := strat.Order(weighted)
			Expect(err).NotTo(HaveOccurred())
			Expect(selection.Names()).To(Equal([]string{"ViaCEP", "BrasilAPI"}))
		})

		It("should order the remainder by descending weight", func() {
			descriptors := []strategy.Descriptor{
				{Provider: correios, Weight: 10},
				{Provider: brasilAPI, Weight: 30},
				{Provider: viaCEP, Weight: 60},
			}
			// 0.05 * 100 = 5, inside Correios' range
			strat := strategy.NewWeightedRandom(sequence(0.05))

			selection, err := strat.Order(descriptors)
			Expect(err).NotTo(HaveOccurred())
			Expect(selection.Names()).To(Equal([]string{"Correios", "ViaCEP", "BrasilAPI"}))
		})

		It("should keep configured order among equal weights", func() {
			descriptors := []strategy.Descriptor{
				{Provider: viaCEP, Weight: 10},
				{Provider: brasilAPI, Weight: 10},
				{Provider: correios, Weight: 10},
			}
			// 15 falls in BrasilAPI's range [10, 20)
			strat := strategy.NewWeightedRandom(sequence(0.5))

			selection, err := strat.Order(descriptors)
			Expect(err).NotTo(HaveOccurred())
			Expect(selection.Names()).To(Equal([]string{"BrasilAPI", "ViaCEP", "Correios"}))
		})

		It("should never choose a zero weight provider as primary", func() {
			descriptors := []strategy.Descriptor{
				{Provider: correios, Weight: 0},
				{Provider: viaCEP, Weight: 1},
			}
			strat := strategy.NewWeightedRandom(sequence(0.0))

			selection, err := strat.Order(descriptors)
			Expect(err).NotTo(HaveOccurred())
			Expect(selection.Names()).To(Equal([]string{"ViaCEP", "Correios"}))
		})
	})

	Context("with the default random source", func() {
		It("should return a permutation of the input", func() {
			strat := strategy.NewWeightedRandom(nil)
			descriptors := append(weighted, strategy.Descriptor{Provider: correios, Weight: 5})

			for range 200 {
				selection, err := strat.Order(descriptors)
				Expect(err).NotTo(HaveOccurred())
				Expect(selection.Names()).To(ConsistOf("ViaCEP", "BrasilAPI", "Correios"))
			}
		})

		It("should honour the weights over many draws", func() {
			strat := strategy.NewWeightedRandom(nil)
			primaries := make(map[string]int)

			for range 1000 {
				selection, err := strat.Order(weighted)
				Expect(err).NotTo(HaveOccurred())
				primaries[selection[0].Name()]++
			}

			Expect(primaries["ViaCEP"] * 100 / 1000).To(BeNumerically("~", 70, 10))
			Expect(primaries["BrasilAPI"] * 100 / 1000).To(BeNumerically("~", 30, 10))
		})

		It("should be safe for concurrent use", func() {
			strat := strategy.NewWeightedRandom(nil)
			var wg sync.WaitGroup

			for range 50 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					for range 20 {
						selection, err := strat.Order(weighted)
						Expect(err).NotTo(HaveOccurred())
						Expect(selection).To(HaveLen(2))
					}
				}()
			}
			wg.Wait()

			Expect(strat.Count()).To(Equal(int64(1000)))
		})
	})

	Describe("Validation", func() {
		var strat *strategy.WeightedRandom

		BeforeEach(func() {
			strat = strategy.NewWeightedRandom(sequence(0.5))
		})

		It("should reject an empty descriptor set", func() {
			_, err := strat.Order(nil)
			Expect(errors.Is(err, strategy.ErrNoProviders)).To(BeTrue())
		})

		It("should reject negative weights", func() {
			_, err := strat.Order([]strategy.Descriptor{{Provider: viaCEP, Weight: -1}})
			Expect(errors.Is(err, strategy.ErrNegativeWeight)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("ViaCEP"))
		})

		It("should reject a zero total weight", func() {
			_, err := strat.Order([]strategy.Descriptor{
				{Provider: viaCEP, Weight: 0},
				{Provider: brasilAPI, Weight: 0},
			})
			Expect(errors.Is(err, strategy.ErrNonPositiveTotal)).To(BeTrue())
		})

		It("should not count rejected orderings", func() {
			strat.Order(nil)
			Expect(strat.Count()).To(BeZero())
		})
	})

	Describe("Count", func() {
		It("should track orderings without affecting them", func() {
			strat := strategy.NewWeightedRandom(sequence(0.65))

			for range 3 {
				selection, err := strat.Order(weighted)
				Expect(err).NotTo(HaveOccurred())
				Expect(selection[0].Name()).To(Equal("ViaCEP"))
			}
			Expect(strat.Count()).To(Equal(int64(3)))
		})
	})
})

var _ = Describe("Validate", func() {
	It("should accept a positive total", func() {
		Expect(strategy.Validate([]strategy.Descriptor{{Provider: namedProvider("ViaCEP"), Weight: 1}})).To(Succeed())
	})

	It("should reject what Order rejects", func() {
		Expect(errors.Is(strategy.Validate(nil), strategy.ErrNoProviders)).To(BeTrue())
	})
})
