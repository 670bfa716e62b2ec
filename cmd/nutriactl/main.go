package main

import "github.com/terraconstructs/nutria/cmd/nutriactl/cmd"

func main() {
	cmd.Execute()
}
