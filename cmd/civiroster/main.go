package main

import (
	"civiroster/cmd/civiroster/cmd"
)

func main() {
	cmd.Execute()
}
