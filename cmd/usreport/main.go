// usreport generates structured ultrasound reports from free text findings.
//
// Usage:
//
//	usreport generate "Liver enlarged with increased echogenicity."
//	usreport generate --input-file notes.txt --trace
//	usreport findings "Small gallstone, kidneys normal."
//	usreport prompt --findings-file findings.json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
