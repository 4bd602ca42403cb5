package a

func count() int { // want count:"returns \\[10, 10\\]"
	x := 0
	for x < 10 {
		x++
	}
	return x // want `returns \[10, 10\]`
}

func clamp(x int) int { // want clamp:"returns \\[0, 100\\]"
	if x < 0 {
		return 0 // want `returns \[0, 0\]`
	}
	if x > 100 {
		return 100 // want `returns \[100, 100\]`
	}
	return x // want `returns \[0, 100\]`
}

func Limit() int { // want Limit:"returns \\[42, 42\\]"
	return 42 // want `returns \[42, 42\]`
}

func Identity(x int) int {
	return x // want `returns \[-∞, ∞\]`
}

func double(x int) int { // want double:"returns \\[6, 8\\]"
	return x * 2 // want `returns \[6, 8\]`
}

var sink func(int) int

func calls() int { // want calls:"returns \\[12, 16\\]"
	sink = twice
	return double(3) + double(4) // want `returns \[12, 16\]`
}

func twice(x int) int {
	return x * 2 // want `returns \[-∞, ∞\]`
}

func useTwice() int {
	return twice(1) // want `returns \[-∞, ∞\]`
}
