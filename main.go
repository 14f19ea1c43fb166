package main

import "github.com/notargets/gocombust/cmd"

func main() {
	cmd.Execute()
}
