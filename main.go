package main

import "github.com/kamusis/pricematch/cmd"

func main() {
	cmd.Execute()
}
