package main

import "github.com/the-dev-tools/dev-tools/packages/scanflow/apps/cli/cmd"

func main() {
	cmd.Execute()
}
