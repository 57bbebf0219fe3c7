package main

import "nrjtrack/internal/ctl"

func main() {
	ctl.Execute()
}
