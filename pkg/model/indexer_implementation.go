package model

import (
	"log"
	"sort"
)

// Domains have different sizes, so indices are laid out as prefix offsets: variable i owns the range
// offsets[i]+1 .. offsets[i+1]
type indexerImplementation struct {
	offsets []uint64
}

func (indexer *indexerImplementation) Index(variable, candidate int) uint64 {
	index := indexer.offsets[variable] + uint64(candidate) + 1
	if index > indexer.offsets[variable+1] {
		log.Panicf("candidate %d is out of range for variable %d", candidate, variable)
	}
	return index
}

func (indexer *indexerImplementation) Attributes(index uint64) (variable, candidate int, ok bool) {
	if index == 0 || index > indexer.Candidates() {
		return 0, 0, false
	}
	index = index - 1

	// First variable whose range ends past the index
	variable = sort.Search(len(indexer.offsets)-1, func(i int) bool {
		return indexer.offsets[i+1] > index
	})
	candidate = int(index - indexer.offsets[variable])

	return variable, candidate, true
}

func (indexer *indexerImplementation) Candidates() uint64 {
	return indexer.offsets[len(indexer.offsets)-1]
}
