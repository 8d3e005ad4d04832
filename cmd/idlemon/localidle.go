package main

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type idleMeasurerFn func() (int64, error)

// how long the local machine's user has been inactive, in seconds.
// xprintidle(1) reports milliseconds.
func measureLocalIdle() (int64, error) {
	output, err := exec.Command("xprintidle").Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %v", err)
	}

	milliseconds, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("xprintidle output: %v", err)
	}

	return milliseconds / 1000, nil
}
