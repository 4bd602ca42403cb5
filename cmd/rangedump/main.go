// Rangedump reports the range of every integer returned by the functions of
// Go packages.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"honnef.co/go/vrp/analysis/facts/ranges"
)

func main() {
	ranges.Analysis.Flags.Set("print", "true")
	singlechecker.Main(ranges.Analysis)
}
