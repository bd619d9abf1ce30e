package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"taxreview/internal/taxrecord"
)

func TestSlot_ReplaceAndLoad(t *testing.T) {
	s := NewSlot()
	assert.True(t, s.Load().Empty())
	assert.Zero(t, s.Load().Version)

	a := &taxrecord.Record{Title: "a"}
	snap := s.Replace(a, "a.json")
	assert.Same(t, a, snap.Record)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Same(t, snap, s.Load())

	b := &taxrecord.Record{Title: "b"}
	s.Replace(b, "b.json")
	assert.Same(t, b, s.Load().Record)
	assert.Equal(t, "b.json", s.Load().Path)
	assert.Equal(t, uint64(2), s.Load().Version)
}

func TestSlot_NilIsIgnored(t *testing.T) {
	s := NewSlot()
	a := &taxrecord.Record{Title: "a"}
	s.Replace(a, "a.json")

	snap := s.Replace(nil, "broken.json")
	assert.Same(t, a, snap.Record)
	assert.Equal(t, "a.json", s.Load().Path)
}

func TestSlot_ConcurrentReplace(t *testing.T) {
	s := NewSlot()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Replace(&taxrecord.Record{}, "x.json")
			_ = s.Load().Record
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), s.Load().Version)
}

func TestSnapshotEmptyNil(t *testing.T) {
	var snap *Snapshot
	assert.True(t, snap.Empty())
}
