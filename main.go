package main

import "github.com/openlovable/lovable/cmd"

func main() {
	cmd.Execute()
}
