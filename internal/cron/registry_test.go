package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsOrder(t *testing.T) {
	a, b := &testJob{name: "song-stats-sweep"}, &testJob{name: "task-prune"}
	registry := NewRegistry(a, nil, b)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, a, jobs[0])
	assert.Same(t, b, jobs[1])

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(&testJob{name: "task-prune"})
	assert.Error(t, registry.Register(&testJob{name: "task-prune"}))
	assert.Panics(t, func() { NewRegistry(&testJob{name: "x"}, &testJob{name: "x"}) })
}
