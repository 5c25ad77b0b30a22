package main

import "github.com/chris/worklog/cmd"

func main() {
	cmd.Execute()
}
