package diskstorage_test

import (
	"context"
	"strconv"
	"testing"

	diskstorage "github.com/olovm/cora-diskstorage"
	"github.com/olovm/cora-diskstorage/memory"
	"github.com/olovm/cora-diskstorage/testutil"
)

const benchSeed = 42

// openPopulated opens a storage holding n person records in divider sys1.
func openPopulated(b *testing.B, n int, opts ...diskstorage.Option) *diskstorage.Storage {
	b.Helper()
	ctx := context.Background()
	s, err := diskstorage.Open(ctx, b.TempDir(), memory.New(), opts...)
	if err != nil {
		b.Fatal(err)
	}
	rng := testutil.NewRNG(benchSeed)
	for i := range n {
		id := "p" + strconv.Itoa(i)
		err := s.Create(ctx, "person", id,
			testutil.Record("person", id, "name", rng.Word(8)),
			testutil.Terms("nameTerm", rng.Word(8)),
			testutil.Links("place:pl"+strconv.Itoa(rng.Intn(10))),
			"sys1")
		if err != nil {
			b.Fatal(err)
		}
	}
	return s
}

// BenchmarkUpdate measures rewriting all partitions of one divider as it grows.
func BenchmarkUpdate(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run("records="+strconv.Itoa(size), func(b *testing.B) {
			s := openPopulated(b, size)
			defer s.Close()

			ctx := context.Background()
			record := testutil.Record("person", "p0", "name", "Anna")
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if err := s.Update(ctx, "person", "p0", record, nil, nil, "sys1"); err != nil {
					b.Fatal(err)
				}
			}

			b.StopTimer()
			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "updates/sec")
		})
	}
}

// BenchmarkUpdate_Atomic is BenchmarkUpdate with temp-and-rename writes.
func BenchmarkUpdate_Atomic(b *testing.B) {
	s := openPopulated(b, 100, diskstorage.WithAtomicWrites(true))
	defer s.Close()

	ctx := context.Background()
	record := testutil.Record("person", "p0", "name", "Anna")
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := s.Update(ctx, "person", "p0", record, nil, nil, "sys1"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOpen measures recovery of a populated tree.
func BenchmarkOpen(b *testing.B) {
	for _, workers := range []int{1, 4} {
		b.Run("workers="+strconv.Itoa(workers), func(b *testing.B) {
			s := openPopulated(b, 1000)
			base := s.BasePath()
			if err := s.Close(); err != nil {
				b.Fatal(err)
			}

			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				r, err := diskstorage.Open(ctx, base, memory.New(), diskstorage.WithRecoveryWorkers(workers))
				if err != nil {
					b.Fatal(err)
				}
				_ = r.Close()
			}
		})
	}
}
