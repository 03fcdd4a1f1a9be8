package cache

import (
	"context"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) (cep.Address, bool, error) {
	return cep.Address{}, false, nil
}

func (Noop) Set(context.Context, string, cep.Address, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) Clear(context.Context) error { return nil }

var _ Cache = Noop{}
