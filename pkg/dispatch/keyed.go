package dispatch

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"

	"github.com/funvibe/actorgen/pkg/actor"
)

// Keyed is a set of Serial lanes. Every key maps to one lane, so tasks
// submitted under the same key run in submission order and never overlap.
type Keyed struct {
	label string
	lanes []*Serial
}

// NewKeyed starts n serial lanes. n < 1 is treated as 1.
func NewKeyed(n int, opts ...Option) *Keyed {
	if n < 1 {
		n = 1
	}
	base := newOptions("keyed", opts)

	k := &Keyed{label: base.label, lanes: make([]*Serial, n)}
	for i := range k.lanes {
		laneOpts := append(append([]Option(nil), opts...), WithLabel(fmt.Sprintf("%s/%d", base.label, i)))
		k.lanes[i] = NewSerial(laneOpts...)
	}
	return k
}

// Label returns the label shared by the lanes.
func (k *Keyed) Label() string { return k.label }

// Lane returns the queue for key.
func (k *Keyed) Lane(key string) actor.Queue {
	return k.lanes[xxhash.Sum64String(key)%uint64(len(k.lanes))]
}

// Close closes every lane.
func (k *Keyed) Close(ctx context.Context) error {
	var errs error
	for _, l := range k.lanes {
		errs = multierr.Append(errs, l.Close(ctx))
	}
	return errs
}
