// Command flexray-analyzer decodes, encodes, captures, and replays
// FlexRay link-layer traffic from recorded or live edge streams.
package main

import "github.com/flexray-tools/analyzer/cmd"

func main() {
	cmd.Execute()
}
