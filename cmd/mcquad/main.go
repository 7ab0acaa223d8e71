// Command mcquad integrates Lua-scripted functions by Monte Carlo
// sampling.
//
//	mcquad run --expr '4 * (x[1]^2 + x[2]^2 <= 1 and 1 or 0)' --bound 0:1 --bound 0:1 --target 1e-3
//	mcquad run --config jobs.yaml --format yaml
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
