package mcquad

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sourcegraph/conc"
	concpool "github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"
)

// The benchmarks below draw the same number of samples with different
// ways of sharing the running statistics between goroutines.

const compareSamples = 1 << 16

func compareDomain(b *testing.B) *domain[float64] {
	d, err := newDomain([]Bound[float64]{{0, 1}, {0, 1}})
	if err != nil {
		b.Fatal(err)
	}
	return d
}

func sampleDisk(s *sampler[float64], d *domain[float64], u, x []float64) float64 {
	s.draw(u)
	jac := d.mapPoint(u, x)
	if x[0]*x[0]+x[1]*x[1] <= 1 {
		return 4 * jac
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// 1. Lock per sample
// ─────────────────────────────────────────────────────────────────────────────

func BenchmarkMerge_LockPerSample(b *testing.B) {
	d := compareDomain(b)
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var (
					mu sync.Mutex
					s  RunningStats[float64]
					wg conc.WaitGroup
				)
				for w := range workers {
					wg.Go(func() {
						smp := newSampler(d, 1, w)
						u, x := make([]float64, 2), make([]float64, 2)
						for range compareSamples / workers {
							y := sampleDisk(smp, d, u, x)
							mu.Lock()
							s.Add(y)
							mu.Unlock()
						}
					})
				}
				wg.Wait()
			}
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// 2. Local batches merged into the accumulator
// ─────────────────────────────────────────────────────────────────────────────

func BenchmarkMerge_Batch_Errgroup(b *testing.B) {
	d := compareDomain(b)
	for _, batch := range []int{16, 128, 1024} {
		b.Run(fmt.Sprintf("batch=%d", batch), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var acc accumulator[float64]
				g, _ := errgroup.WithContext(context.Background())
				for w := range 4 {
					g.Go(func() error {
						smp := newSampler(d, 1, w)
						u, x := make([]float64, 2), make([]float64, 2)
						for done := 0; done < compareSamples/4; done += batch {
							var local RunningStats[float64]
							for range batch {
								local.Add(sampleDisk(smp, d, u, x))
							}
							acc.merge(local)
						}
						return nil
					})
				}
				_ = g.Wait()
			}
		})
	}
}

func BenchmarkMerge_Batch_ConcPool(b *testing.B) {
	d := compareDomain(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var acc accumulator[float64]
		p := concpool.New().WithMaxGoroutines(4)
		for w := range 4 {
			p.Go(func() {
				smp := newSampler(d, 1, w)
				u, x := make([]float64, 2), make([]float64, 2)
				for done := 0; done < compareSamples/4; done += defaultBatchSize {
					var local RunningStats[float64]
					for range defaultBatchSize {
						local.Add(sampleDisk(smp, d, u, x))
					}
					acc.merge(local)
				}
			})
		}
		p.Wait()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// 3. Full runs through the pool
// ─────────────────────────────────────────────────────────────────────────────

func BenchmarkMerge_Pool(b *testing.B) {
	d := compareDomain(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var acc accumulator[float64]
		p := newPool(context.Background(), 4)
		p.start(func(ctx context.Context, id int) error {
			smp := newSampler(d, 1, id)
			u, x := make([]float64, 2), make([]float64, 2)
			for done := 0; done < compareSamples/4; done += defaultBatchSize {
				var local RunningStats[float64]
				for range defaultBatchSize {
					local.Add(sampleDisk(smp, d, u, x))
				}
				acc.merge(local)
				p.batchDone()
			}
			return nil
		})
		_ = p.Wait()
	}
}
