package main

import "github.com/danpilch/stackprof/cmd/stackprof/cmd"

func main() {
	cmd.Execute()
}
