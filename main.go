package main

import "github.com/Mistic92/unleash-proxy-client-go/cmd"

func main() {
	cmd.Execute()
}
