package main

import "github.com/benarent/viscago/cmd"

func main() {
	cmd.Execute()
}
