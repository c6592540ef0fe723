package main

import "github.com/frahmantamala/school-payments/cmd"

func main() {
	cmd.Execute()
}
