// main is the entry point for the sonarissues CLI.
package main

import (
	"github.com/huangsam/sonarissues/cmd"
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/history"
)

func main() {
	err := cmd.Execute()
	history.CloseHistory()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
