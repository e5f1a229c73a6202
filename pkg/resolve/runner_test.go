package resolve

import (
	"context"
	"testing"

	"github.com/stagehand-dev/stagehand/pkg/cache"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

func testLayout() *scene.Layout {
	return &scene.Layout{
		Room: scene.Room{Width: 5, Depth: 4, Height: 2.7},
		Objects: []scene.Object{
			{ID: "bed", Size: &scene.Size{W: 1.6, D: 2, H: 0.5}, Position: &scene.Vec3{X: -1.2}},
			{ID: "nightstand", Size: &scene.Size{W: 0.4, D: 0.4, H: 0.5}, Position: &scene.Vec3{X: 0.9}},
		},
	}
}

func TestRunnerExecuteCachesResult(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	ctx := context.Background()

	first, err := runner.Execute(ctx, testLayout(), Options{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if first.Cache.Hit {
		t.Error("first execution should miss the cache")
	}
	if first.Cache.Key == "" {
		t.Error("cache key should be populated")
	}

	second, err := runner.Execute(ctx, testLayout(), Options{})
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}
	if !second.Cache.Hit {
		t.Error("second execution should hit the cache")
	}
	if second.Cache.Key != first.Cache.Key {
		t.Errorf("keys differ: %s vs %s", second.Cache.Key, first.Cache.Key)
	}

	fj, _ := scene.MarshalResolved(first.Scene)
	sj, _ := scene.MarshalResolved(second.Scene)
	if string(fj) != string(sj) {
		t.Error("cached scene differs from computed scene")
	}
}

func TestRunnerDifferentOptionsMissCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	ctx := context.Background()
	if _, err := runner.Execute(ctx, testLayout(), Options{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	coarse, err := runner.Execute(ctx, testLayout(), Options{GridStep: 0.5})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if coarse.Cache.Hit {
		t.Error("different grid step must not reuse the cached scene")
	}
}

func TestRunnerNilCacheDisablesCaching(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		result, err := runner.Execute(ctx, testLayout(), Options{})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if result.Cache.Hit {
			t.Error("null cache should never hit")
		}
	}
}

func TestRunnerPropagatesResolutionErrors(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	bad := &scene.Layout{Room: scene.Room{Width: -1, Depth: 1, Height: 1}}
	if _, err := runner.Execute(context.Background(), bad, Options{}); err == nil {
		t.Fatal("expected error for invalid room")
	}
}
