package main

import "github.com/vitalsense/rppg-analyzer/cmd"

func main() {
	cmd.Execute()
}
