package b

import "a"

func useLimit() int { // want useLimit:"returns \\[43, 43\\]"
	return a.Limit() + 1 // want `returns \[43, 43\]`
}

func small(x uint8) uint8 { // want small:"returns \\[0, 15\\]"
	return x % 16 // want `returns \[0, 15\]`
}
