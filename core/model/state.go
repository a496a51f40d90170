// Package model provides shared state management for acqstat estimators.
//
// Every fitted object in the pipeline (encoder, resampler, regression)
// composes a StateManager rather than embedding it, so that fitted-state
// checks are uniform across the codebase and models cannot be used for
// prediction or transformation before training.
package model

import "sync"

// StateManager tracks whether an estimator has been fitted and the
// dimensions it was fitted with. Safe for concurrent use.
type StateManager struct {
	mu        sync.RWMutex
	fitted    bool
	nFeatures int
	nSamples  int
}

// NewStateManager creates an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether SetFitted has been called.
func (sm *StateManager) IsFitted() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.fitted
}

// SetFitted marks the estimator as fitted. Called by estimators at the end
// of a successful Fit.
func (sm *StateManager) SetFitted() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.fitted = true
}

// Reset returns the estimator to its unfitted state.
func (sm *StateManager) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.fitted = false
	sm.nFeatures = 0
	sm.nSamples = 0
}

// SetDimensions records the training dimensions.
func (sm *StateManager) SetDimensions(nFeatures, nSamples int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.nFeatures = nFeatures
	sm.nSamples = nSamples
}

// NFeatures returns the number of features seen at fit time.
func (sm *StateManager) NFeatures() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.nFeatures
}

// NSamples returns the number of samples seen at fit time.
func (sm *StateManager) NSamples() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.nSamples
}
