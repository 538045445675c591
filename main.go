// Command salesdash reports on a sales transactions CSV.
package main

import "github.com/theirongolddev/salesdash/cmd"

func main() {
	cmd.Execute()
}
