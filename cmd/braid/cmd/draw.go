package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/braidml/braid/pkg/blueprint"
	"github.com/braidml/braid/pkg/drawer"
)

var drawOut string

var drawCmd = &cobra.Command{
	Use:   "draw <blueprint.yaml>",
	Short: "Render a blueprint pipeline as a DOT graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraw,
}

func init() {
	rootCmd.AddCommand(drawCmd)

	drawCmd.Flags().StringVar(&drawOut, "out", "", "write DOT to this file instead of stdout")
}

func runDraw(cmd *cobra.Command, args []string) error {
	spec, err := blueprint.Load(args[0])
	if err != nil {
		return err
	}
	op, err := spec.Build()
	if err != nil {
		return err
	}

	d := drawer.NewDOTDrawer()
	if drawOut != "" {
		return d.DrawFile(op, drawOut)
	}

	return d.Draw(op, os.Stdout)
}
