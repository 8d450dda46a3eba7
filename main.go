package main

import "github.com/kamusis/reel/cmd"

func main() {
	cmd.Execute()
}
