// Command wal-segment-cli inspects and manually exercises a single WAL
// segment file.
package main

import "wal-segment/cmd/wal-segment-cli/cmd"

func main() {
	cmd.Execute()
}
