package main

import "github.com/ducminh1220/netscope/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
