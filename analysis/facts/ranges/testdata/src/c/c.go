package c

func double(x int) int {
	return x * 2 // want `returns \[-∞, ∞\]`
}

func calls() int {
	return double(3) // want `returns \[-∞, ∞\]`
}
