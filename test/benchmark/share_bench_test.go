package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/crypto"
	"github.com/TheMichaelB/sealshare/internal/metrics"
	"github.com/TheMichaelB/sealshare/internal/services/snippets"
	"github.com/TheMichaelB/sealshare/internal/transport"
	"github.com/TheMichaelB/sealshare/test/testutil"
)

func newService(b *testing.B) *snippets.Service {
	b.Helper()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = "https://sealshare.test"
	return snippets.NewService(transport.NewMockTransport(), crypto.NewProvider(), nil,
		metrics.NewRegistry(), cfg, testutil.NewTestLogger())
}

func BenchmarkShareOpen(b *testing.B) {
	svc := newService(b)
	ctx := context.Background()
	sizes := []int{1024, 65536, 512000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("%dKB", size/1024), func(b *testing.B) {
			content := strings.Repeat("a", size)

			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for i := 0; i < b.N; i++ {
				result, err := svc.Share(ctx, snippets.ShareRequest{Content: content})
				if err != nil {
					b.Fatal(err)
				}
				if _, err := svc.Open(ctx, result.URL, ""); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSharePassword(b *testing.B) {
	svc := newService(b)
	ctx := context.Background()

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Share(ctx, snippets.ShareRequest{Content: "secret", Password: "hunter2"}); err != nil {
			b.Fatal(err)
		}
	}
}
