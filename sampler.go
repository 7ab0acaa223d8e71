package mcquad

import "math/rand/v2"

// sampler draws uniform points in the open sampling box of a domain.
// Each worker owns exactly one sampler; it is never shared.
type sampler[T Float] struct {
	rng  *rand.Rand
	axes []axis[T]
}

func newSampler[T Float](d *domain[T], runSeed uint64, worker int) *sampler[T] {
	return &sampler[T]{
		rng:  rand.New(rand.NewPCG(workerSeed(runSeed, worker))),
		axes: d.axes,
	}
}

// draw fills u with a point strictly inside every (lo, hi).
func (s *sampler[T]) draw(u []T) {
	for i := range s.axes {
		ax := &s.axes[i]
		w := ax.hi - ax.lo
		for {
			v := ax.lo + w*T(s.unit())
			// Rounding to T can land on an endpoint, where the Jacobian
			// of an infinite axis blows up.
			if v > ax.lo && v < ax.hi {
				u[i] = v
				break
			}
		}
	}
}

// unit returns a float64 in the open interval (0, 1).
func (s *sampler[T]) unit() float64 {
	return (float64(s.rng.Uint64()>>11) + 0.5) * 0x1p-53
}

const golden = 0x9e3779b97f4a7c15

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// runSeed derives the seed of the n-th run of an integrator.
func runSeed(base uint64, run uint64) uint64 {
	return splitmix64(base ^ splitmix64(run))
}

// workerSeed derives a PCG state for one worker. Distinct workers get
// distinct (hi, lo) pairs, so their streams never coincide.
func workerSeed(run uint64, worker int) (uint64, uint64) {
	hi := splitmix64(run + uint64(worker+1)*golden)
	lo := splitmix64(hi ^ run)
	return hi, lo
}
