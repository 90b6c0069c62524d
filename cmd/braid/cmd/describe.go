package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/braidml/braid/pkg/blueprint"
	"github.com/braidml/braid/pkg/operators"
)

var describeCmd = &cobra.Command{
	Use:   "describe <blueprint.yaml>",
	Short: "Show the steps and parameters of a blueprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

type stepInfo struct {
	Name         string         `json:"name"`
	Impl         string         `json:"impl,omitempty"`
	Alternatives []string       `json:"alternatives,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

type pipelineInfo struct {
	Name  string     `json:"name"`
	Steps []stepInfo `json:"steps"`
}

func runDescribe(cmd *cobra.Command, args []string) error {
	spec, err := blueprint.Load(args[0])
	if err != nil {
		return err
	}
	op, err := spec.Build()
	if err != nil {
		return err
	}

	info := pipelineInfo{Name: op.Name()}
	if pipe, ok := op.(*operators.Pipeline); ok {
		for _, step := range pipe.Steps() {
			info.Steps = append(info.Steps, describeStep(step))
		}
	} else {
		info.Steps = append(info.Steps, describeStep(op))
	}

	if IsJSONOutput() {
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		return nil
	}

	fmt.Printf("Pipeline: %s\n\n", info.Name)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Step", "Impl", "Params")
	for _, step := range info.Steps {
		impl := step.Impl
		if len(step.Alternatives) > 0 {
			impl = "choice of " + strings.Join(step.Alternatives, " | ")
		}
		table.Append(step.Name, impl, formatParams(step.Params))
	}
	table.Render()

	return nil
}

func describeStep(op operators.Operator) stepInfo {
	info := stepInfo{Name: op.Name()}

	if choice, ok := op.(*operators.Choice); ok {
		for _, alt := range choice.Alternatives() {
			info.Alternatives = append(info.Alternatives, alt.Name())
		}

		return info
	}

	if impl, ok := operators.ImplOf(op); ok {
		info.Impl = fmt.Sprintf("%T", impl)
	}
	if param, ok := op.(operators.ParamOperator); ok {
		info.Params = param.Params()
	}

	return info
}

func formatParams(params map[string]any) string {
	if len(params) == 0 {
		return "-"
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, params[key]))
	}

	return strings.Join(parts, ", ")
}
