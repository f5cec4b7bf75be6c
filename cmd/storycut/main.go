package main

import "github.com/ndelia/storycut/internal/cli"

func main() {
	cli.Main()
}
