// ccsdk-inspect is a small CLI front-end over the session/analytics stack:
// parse a session log, print its structural stats, list its tool
// invocations, or dump the JSON Schema this module expects the CLI's
// structured response to conform to.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bazelment/claude-sdk-go/analytics"
	"github.com/bazelment/claude-sdk-go/executor"
	"github.com/bazelment/claude-sdk-go/session"
)

var (
	strictFlag bool
	out        = newOutput()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ccsdk-inspect",
	Short: "Inspect upstream CLI session logs",
	Long: `ccsdk-inspect parses a session's JSONL conversation log and reports on
its structure, tool usage, and cost — a read-only companion to the
claude-sdk-go library, useful for debugging a workspace's recorded history
without writing Go.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&strictFlag, "strict", false, "fail on the first malformed record instead of collecting a warning")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(schemaCmd)
}

func loadSession(path string) (*session.Session, error) {
	var opts []session.Option
	if strictFlag {
		opts = append(opts, session.WithStrict())
	}
	sess, warnings, err := session.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		out.Warn(fmt.Sprintf("line %d: %s", w.Line, w.Reason))
	}
	return sess, nil
}

var statsCmd = &cobra.Command{
	Use:   "stats <session.jsonl>",
	Short: "Print structural statistics for a session log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession(args[0])
		if err != nil {
			return err
		}
		stats := analytics.Stats(sess)

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		out.Printf("messages:              %d\n", stats.MessageCount)
		out.Printf("unique roles:           %v\n", stats.UniqueRoles)
		out.Printf("branching factor:       %.2f\n", stats.BranchingFactor)
		out.Printf("orphan count:           %d\n", stats.OrphanCount)
		out.Printf("main chain length:      %d\n", stats.MainChainLength)
		out.Printf("compaction boundaries:  %d\n", stats.CompactionBoundaries)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "emit machine-readable JSON instead")
}

var toolsCmd = &cobra.Command{
	Use:   "tools <session.jsonl>",
	Short: "List tool invocations and their matched results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession(args[0])
		if err != nil {
			return err
		}
		execs := analytics.ToolExecutions(sess)
		if len(execs) == 0 {
			out.Info("no tool invocations found")
			return nil
		}
		for _, e := range execs {
			status := out.Colorize(colorGreen, "ok")
			if !e.Success {
				status = out.Colorize(colorYellow, "unresolved")
			}
			out.Printf("%-10s %-20s %s\n", status, e.ToolName, e.InvocationID)
		}

		costs := analytics.CostPerTool(sess)
		if len(costs) > 0 {
			out.Print("")
			out.Info("cost by tool:")
			for name, cost := range costs {
				out.Printf("  %-20s $%.4f\n", name, cost)
			}
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for the CLI's structured response",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := executor.ResponseSchemaJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}
