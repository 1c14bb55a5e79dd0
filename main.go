package main

import "github.com/sh0rch/nf-wgobfs/cmd"

func main() {
	cmd.Execute()
}
