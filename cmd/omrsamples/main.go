// Command omrsamples builds labelled symbol-classifier training sets from
// staff geometry records, ground-truth annotations and page images.
//
// Usage:
//
//	omrsamples extract --config job.toml
//	omrsamples candidates --geometry page.xml --image page.png
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"omr-sampler/internal/version"
)

const appName = "omrsamples"

func main() {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Extract music symbol training samples from annotated score pages",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newExtractCmd(), newCandidatesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
