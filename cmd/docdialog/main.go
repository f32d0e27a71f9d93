package main

import "github.com/dgallion1/docdialog/internal/cli"

func main() {
	cli.Execute()
}
