package main

import "github.com/naka-gawa/latedays/cmd"

func main() {
	cmd.Execute()
}
