package main

import "salary-tracker/cmd"

func main() {
	cmd.Execute()
}
