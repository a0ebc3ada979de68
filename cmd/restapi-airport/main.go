// Command restapi-airport serves REST service descriptors as DuckDB Airport
// tables over Arrow Flight.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
