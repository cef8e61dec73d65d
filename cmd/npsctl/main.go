// Command npsctl answers calendar questions offline: which custom week a date
// falls in and which reporting months a year has.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
