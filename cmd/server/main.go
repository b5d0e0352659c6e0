package main

import "fieldinspect/cmd/server/cmd"

func main() {
	cmd.Execute()
}
