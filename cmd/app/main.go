package main

import (
	"os"

	"github.com/igraphixwebpreview/RoadReportHub/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
