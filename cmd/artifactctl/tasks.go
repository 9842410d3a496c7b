package main

import (
	"os"
	"strings"

	"github.com/forensic-go/windecode/pkg/tasks"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newTaskDumpCmd())
}

func newTaskDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task-dump <file>",
		Short: "Decode a Task Scheduler .job or XML task definition",
		Long: `task-dump accepts either a legacy binary .job file or a modern Task
Scheduler XML task definition; the format is chosen by the file extension
unless overridden with --format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				if strings.EqualFold(filepathExt(args[0]), ".job") {
					format = "job"
				} else {
					format = "xml"
				}
			}

			if format == "job" {
				b, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				job, err := tasks.ParseJob(b)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(job)
				}
				printInfo("application:  %s\n", job.Application)
				printInfo("parameters:   %s\n", job.Parameters)
				printInfo("working dir:  %s\n", job.WorkingDir)
				printInfo("author:       %s\n", job.Author)
				printInfo("comment:      %s\n", job.Comment)
				printInfo("last run:     %s\n", job.LastRunTime)
				printInfo("triggers:     %d\n", len(job.Triggers))
				return nil
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			task, err := tasks.ParseTask(f)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(task)
			}
			printInfo("author:      %s\n", task.Registration.Author)
			printInfo("description: %s\n", task.Registration.Description)
			printInfo("actions:     %d\n", len(task.Actions))
			printInfo("time triggers:     %d\n", len(task.Triggers.Time))
			printInfo("logon triggers:    %d\n", len(task.Triggers.Logon))
			printInfo("calendar triggers: %d\n", len(task.Triggers.Calendar))
			return nil
		},
	}
	cmd.Flags().String("format", "", "Force the input format: \"job\" or \"xml\"")
	return cmd
}

func filepathExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i:]
}
