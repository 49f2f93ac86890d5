package dsgraph

import "errors"

var (
	errNodeNotInArena      = errors.New("dsgraph: node handle resolves outside its graph's arena")
	errFoldedNonZeroOffset = errors.New("dsgraph: folded node has a non-zero offset handle")
)
