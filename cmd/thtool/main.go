package main

import "github.com/bsm/teehistorian/cmd/thtool/cmd"

func main() {
	cmd.Execute()
}
