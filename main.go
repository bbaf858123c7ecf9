package main

import "github.com/derickschaefer/jstat/cmd"

func main() {
	cmd.Execute()
}
