package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/skiffworks/skiff/cmd/skiff-cli/internal/bootstrap"
)

var paramsGetFile string

// paramsGetCmd represents the params get command
var paramsGetCmd = &cobra.Command{
	Use:   "get <parameter-name>",
	Short: "Get a single parameter by name",
	Long: `Get the kind and value of one declared parameter. Without a file the value
is the declared default; with --file it is the effective value after applying
that parameter file.

Examples:
  skiff-cli params get relay.timeout_ms
  skiff-cli params get diagnostics.period_ms --file params.json`,
	Args: cobra.ExactArgs(1),
	Run:  paramsGetHandler,
}

func paramsGetHandler(cmd *cobra.Command, args []string) {
	name := args[0]

	store, err := bootstrap.Initialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize parameters: %v\n", err)
		os.Exit(1)
	}

	if paramsGetFile != "" {
		if err := store.LoadFile(afero.NewOsFs(), paramsGetFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	value, err := store.Get(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Parameter '%s' is not declared\n", name)
		fmt.Fprintf(os.Stderr, "\nUse 'skiff-cli params list' to see all declared parameters.\n")
		os.Exit(1)
	}

	fmt.Printf("%s = %s (%s)\n", name, value, value.Kind())
}

func init() {
	paramsCmd.AddCommand(paramsGetCmd)

	paramsGetCmd.Flags().StringVarP(&paramsGetFile, "file", "F", "", "Parameter file to apply over the declared defaults")
}
