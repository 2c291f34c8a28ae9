package main

import (
	"github.com/c9s/kfeed/pkg/cmd"
)

func main() {
	cmd.Execute()
}
