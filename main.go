package main

import "github.com/go-pospf/pospf/cmd"

func main() {
	cmd.Execute()
}
