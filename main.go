// main is the entry point for the formpath CLI.
package main

import (
	"github.com/huangsam/formpath/cmd"
	"github.com/huangsam/formpath/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal(contract.ErrorKind(err)+" error", err)
	}
}
