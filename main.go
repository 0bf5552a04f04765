package main

import "pdpimage/cmd"

func main() {
	cmd.Execute()
}
