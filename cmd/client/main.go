package main

import "fieldinspect/cmd/client/cmd"

func main() {
	cmd.Execute()
}
