// Command catalog-query queries a CKAN catalog, optionally runs resource URLs through
// the IOOS compliance checker and writes the results as CSV or XLSX reports.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
