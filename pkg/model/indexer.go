package model

// indexer interface is design to give a unique SAT index to a (variable, candidate) pair and vice versa
type indexer interface {
	// Returns a unique index to the candidate-th value of the variable-th variable
	Index(variable, candidate int) uint64
	// Returns the (variable, candidate) pair from a unique index; ok is false for indices outside the candidate range
	Attributes(index uint64) (variable int, candidate int, ok bool)
	// Returns the number of indices handed out to candidates, which are 1..Candidates()
	Candidates() uint64
}

func newIndexer(domainModel DomainModel) indexer {
	offsets := make([]uint64, len(domainModel.Variables)+1)
	for i, variable := range domainModel.Variables {
		offsets[i+1] = offsets[i] + uint64(len(domainModel.Domains[variable]))
	}

	return &indexerImplementation{
		offsets: offsets,
	}
}
