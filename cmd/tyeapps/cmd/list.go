package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/tyeapps"
	"github.com/GoCodeAlone/tyeapps/taskfile"
)

// NewListCommand creates the list command: a one-shot read of a manifest.
func NewListCommand() *cobra.Command {
	var (
		tasksFile string
		output    string
		cfg       tyeapps.ProviderConfig
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the applications derived from a task manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tyeapps.ValidateConfig(&cfg); err != nil {
				return err
			}
			apps, err := listApplications(tasksFile, &cfg)
			if err != nil {
				return err
			}
			return printApplications(cmd.OutOrStdout(), apps, output)
		},
	}

	cmd.Flags().StringVarP(&tasksFile, "tasks", "t", "", "Task manifest path")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	cmd.Flags().StringVar(&cfg.RunTaskType, "run-task-type", "", "Task type treated as a run task")
	cmd.Flags().StringVar(&cfg.DefaultDashboard, "default-dashboard", "", "Dashboard reported when no run task is active")
	_ = cmd.MarkFlagRequired("tasks")
	return cmd
}

func listApplications(tasksFile string, cfg *tyeapps.ProviderConfig) ([]tyeapps.Application, error) {
	monitor, err := taskfile.New(tasksFile)
	if err != nil {
		return nil, err
	}
	defer monitor.Close()

	provider, err := tyeapps.NewTaskBasedApplicationProvider(monitor, tyeapps.WithProviderConfig(cfg))
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	return provider.Applications(), nil
}

func printApplications(w io.Writer, apps []tyeapps.Application, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(apps)
	case "text", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDASHBOARD")
		for _, app := range apps {
			name, ok := app.Name()
			if !ok {
				name = "-"
			}
			dashboard, ok := app.Dashboard()
			if !ok {
				dashboard = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\n", name, dashboard)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}
