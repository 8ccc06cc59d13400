package main

import (
	"fmt"

	"github.com/chazu/ephemeron/config"
	"github.com/chazu/ephemeron/vm"
)

// report summarizes one workload run.
type report struct {
	Collections int
	Elements    int
	Retained    int // keys kept alive across the collection
	Members     int // weak entries still present afterwards
	Stats       *vm.GCStats
	Snapshot    *vm.HeapSnapshot
}

// runWorkload builds w.Collections WeakSet/WeakMap pairs from fresh keys,
// keeps every w.RetainEvery-th key rooted, collects, and checks that the
// collections kept exactly the rooted keys.
func runWorkload(rt *vm.Runtime, w config.Workload) (*report, error) {
	h := rt.Heap()
	rep := &report{Collections: w.Collections, Elements: w.Elements}

	pairs := make([]*builtPair, 0, w.Collections)
	for i := 0; i < w.Collections; i++ {
		p, err := buildPair(rt, w)
		if err != nil {
			return nil, fmt.Errorf("collection %d: %w", i, err)
		}
		pairs = append(pairs, p)
	}

	rep.Stats = h.Collect()

	for i, p := range pairs {
		for _, k := range p.kept {
			inSet, err := rt.WeakSetHas(p.set.ToValue(), k.ToValue())
			if err != nil {
				return nil, err
			}
			inMap, err := rt.WeakMapHas(p.m.ToValue(), k.ToValue())
			if err != nil {
				return nil, err
			}
			if !inSet || !inMap {
				return nil, fmt.Errorf("collection %d lost retained key %v", i, k)
			}
		}
		for _, k := range p.loose {
			if !k.IsCollected() {
				return nil, fmt.Errorf("collection %d: unreferenced key %v survived", i, k)
			}
		}
		rep.Retained += len(p.kept)
		rep.Members += p.set.WeakTable().Len() + p.m.WeakTable().Len()
	}
	if rep.Members != 2*rep.Retained {
		return nil, fmt.Errorf("weak tables hold %d entries, want %d", rep.Members, 2*rep.Retained)
	}

	rep.Snapshot = h.Snapshot()
	return rep, nil
}

// builtPair is a WeakSet and a WeakMap sharing one key population.
type builtPair struct {
	set, m      *vm.Object
	kept, loose []*vm.Object
}

func buildPair(rt *vm.Runtime, w config.Workload) (*builtPair, error) {
	h := rt.Heap()
	scope := h.NewScope()
	defer scope.Close()

	bp := &builtPair{}
	keys := scope.HandleObject(rt.NewArray())
	entries := scope.HandleObject(rt.NewArray())
	for j := 0; j < w.Elements; j++ {
		k := scope.HandleObject(rt.NewObject())
		if j%w.RetainEvery == 0 {
			h.AddRoot(k)
			bp.kept = append(bp.kept, k)
		} else {
			bp.loose = append(bp.loose, k)
		}
		keys.Push(k.ToValue())
		entries.Push(rt.NewArray(k.ToValue(), vm.FromInt(j)).ToValue())
	}

	set, err := rt.NewWeakSet(keys.ToValue())
	if err != nil {
		return nil, err
	}
	h.AddRoot(set)
	m, err := rt.NewWeakMap(entries.ToValue())
	if err != nil {
		return nil, err
	}
	h.AddRoot(m)

	bp.set, bp.m = set, m
	return bp, nil
}
