// Command indexd is the CLI entrypoint for the indexing coordinator. Actual
// command wiring lives in internal/cli so it can be exercised without a
// process boundary.
package main

import "github.com/cortexindex/indexd/internal/cli"

func main() {
	cli.Execute()
}
