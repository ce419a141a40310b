package main

import "github.com/repage-dev/repage/cmd/repage/cmd"

func main() {
	cmd.Execute()
}
