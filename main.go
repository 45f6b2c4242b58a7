package main

import "github.com/ARYAN-095/GuardianWeb/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
