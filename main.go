package main

import "github.com/sorazip/sorazip/cmd"

func main() {
	cmd.Execute()
}
