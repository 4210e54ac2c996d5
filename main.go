package main

import "campus-enrollment/cmd"

func main() {
	cmd.Execute()
}
