package batch

import (
	"context"
	"fmt"
	"testing"
)

// BenchmarkProcess measures scheduling overhead with a no-op operation.
func BenchmarkProcess(b *testing.B) {
	benchmarkCases := []struct {
		name        string
		items       int
		batchSize   int
		concurrency int
	}{
		{"100_items_batch_10", 100, 10, 5},
		{"1000_items_batch_100", 1000, 100, 20},
		{"10000_items_batch_1000", 10000, 1000, 100},
	}

	op := OperationFunc[string, int](func(_ context.Context, item string) (int, error) {
		return len(item), nil
	})

	for _, bc := range benchmarkCases {
		b.Run(bc.name, func(b *testing.B) {
			ctx := context.Background()

			// Pre-generate ids to avoid allocation during benchmark
			items := make([]string, bc.items)
			for i := range items {
				items[i] = fmt.Sprintf("item-%d", i)
			}

			processor, err := NewProcessor[string, int](Options{
				MaxBatchSize:   bc.batchSize,
				MaxConcurrency: bc.concurrency,
				RetryDelay:     -1,
			})
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err = processor.Process(ctx, items, op, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkDeduplicate measures duplicate removal on inputs with 50% repeats.
func BenchmarkDeduplicate(b *testing.B) {
	for _, n := range []int{100, 10000} {
		b.Run(fmt.Sprintf("%d_items", n), func(b *testing.B) {
			items := make([]int, n)
			for i := range items {
				items[i] = i / 2
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				Deduplicate(items, true)
			}
		})
	}
}
