package model

type combinationGenerator interface {
	// Combinations returns every k-sized subset of {0, ..., n-1} in lexicographic order.
	//
	// Example:
	//
	//	generator := newCombinationGenerator()
	//	generator.Combinations(4, 3) // [[0 1 2] [0 1 3] [0 2 3] [1 2 3]]
	Combinations(n, k int) [][]int
}

func newCombinationGenerator() combinationGenerator {
	return &combinationGeneratorImplementation{}
}

type combinationGeneratorImplementation struct{}

func (generator *combinationGeneratorImplementation) Combinations(n, k int) [][]int {
	combinations := make([][]int, 0)
	if k <= 0 || k > n {
		return combinations
	}

	generator.combinations(n, 0, make([]int, 0, k), k, &combinations)
	return combinations
}

func (generator *combinationGeneratorImplementation) combinations(n, next int, combination []int, k int, combinations *[][]int) {
	if len(combination) == k {
		combinationCopy := make([]int, k)
		copy(combinationCopy, combination)
		*combinations = append(*combinations, combinationCopy)
		return
	}

	// Leave room for the elements still missing
	for i := next; i <= n-(k-len(combination)); i++ {
		generator.combinations(n, i+1, append(combination, i), k, combinations)
	}
}
