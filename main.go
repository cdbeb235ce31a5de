package main

import "github.com/jsphweid/handcomposer/cmd"

func main() {
	cmd.Execute()
}
