package main

import "github.com/jmehdipour/rate-table-editor/cmd"

func main() {
	cmd.Execute()
}
