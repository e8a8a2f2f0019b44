package main

import "github.com/iksnae/novel-session/cmd"

func main() {
	cmd.Execute()
}
