package main

import "github.com/tubeworks/ms-go-accounts/cmd"

func main() {
	cmd.Execute()
}
