package strategy

import (
	"errors"
	"fmt"

	"github.com/angeloszaimis/cep-resolver/internal/provider"
)

var (
	ErrNoProviders      = errors.New("strategy: no providers configured")
	ErrNegativeWeight   = errors.New("strategy: provider weight must not be negative")
	ErrNonPositiveTotal = errors.New("strategy: total provider weight must be positive")
)

// Descriptor pairs a provider with its relative selection weight.
type Descriptor struct {
	Provider provider.Provider
	Weight   int
}

// Selection is the attempt order for one lookup, primary first.
type Selection []provider.Provider

// Names returns the provider names in attempt order.
func (s Selection) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name()
	}
	return names
}

type Strategy interface {
	Order(descriptors []Descriptor) (Selection, error)
}

// Validate reports whether descriptors can be ordered.
func Validate(descriptors []Descriptor) error {
	_, err := totalWeight(descriptors)
	return err
}

func totalWeight(descriptors []Descriptor) (int, error) {
	if len(descriptors) == 0 {
		return 0, ErrNoProviders
	}

	total := 0
	for _, d := range descriptors {
		if d.Weight < 0 {
			return 0, fmt.Errorf("%w: %s has weight %d", ErrNegativeWeight, d.Provider.Name(), d.Weight)
		}
		total += d.Weight
	}
	if total <= 0 {
		return 0, ErrNonPositiveTotal
	}
	return total, nil
}
