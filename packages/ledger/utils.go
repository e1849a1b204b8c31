package ledger

// saturatingSub returns a - b, or zero if b exceeds a.
func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}

	return a - b
}

// saturatingAdd returns a + b, or the maximum uint64 if the sum overflows.
func saturatingAdd(a, b uint64) uint64 {
	if sum := a + b; sum >= a {
		return sum
	}

	return ^uint64(0)
}
