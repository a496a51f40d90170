package model_test

import (
	"sync"
	"testing"

	"github.com/ezoic/acqstat/core/model"
)

func TestStateLifecycle(t *testing.T) {
	sm := model.NewStateManager()
	if sm.IsFitted() {
		t.Fatalf("new state manager must not be fitted")
	}

	sm.SetFitted()
	sm.SetDimensions(4, 250)

	if !sm.IsFitted() {
		t.Errorf("expected fitted after SetFitted")
	}
	if sm.NFeatures() != 4 {
		t.Errorf("expected 4 features, got %d", sm.NFeatures())
	}
	if sm.NSamples() != 250 {
		t.Errorf("expected 250 samples, got %d", sm.NSamples())
	}
}

func TestStateReset(t *testing.T) {
	sm := model.NewStateManager()
	sm.SetFitted()
	sm.SetDimensions(3, 100)

	sm.Reset()

	if sm.IsFitted() {
		t.Errorf("expected unfitted after Reset")
	}
	if sm.NFeatures() != 0 || sm.NSamples() != 0 {
		t.Errorf("expected dimensions cleared, got %d features %d samples",
			sm.NFeatures(), sm.NSamples())
	}
}

func TestStateConcurrentAccess(t *testing.T) {
	sm := model.NewStateManager()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sm.SetFitted()
			sm.SetDimensions(2, 50)
		}()
		go func() {
			defer wg.Done()
			_ = sm.IsFitted()
			_ = sm.NSamples()
		}()
	}
	wg.Wait()

	if !sm.IsFitted() {
		t.Errorf("expected fitted after concurrent writes")
	}
}
