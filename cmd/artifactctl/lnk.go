package main

import (
	"os"

	"github.com/forensic-go/windecode/pkg/lnk"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLNKDumpCmd(), newLNKJumpListCmd())
}

func newLNKDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lnk-dump <file.lnk>",
		Short: "Decode a Shell Link (.lnk) file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			link, err := lnk.Parse(b)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(link)
			}
			printInfo("target size:   %d\n", link.Header.TargetSize)
			printInfo("description:   %s\n", link.Strings.Description)
			printInfo("relative path: %s\n", link.Strings.RelativePath)
			printInfo("working dir:   %s\n", link.Strings.WorkingDir)
			printInfo("arguments:     %s\n", link.Strings.CommandLineArgs)
			if link.LinkInfo != nil {
				printInfo("local path:    %s%s\n", link.LinkInfo.LocalBasePath, link.LinkInfo.CommonPathSuffix)
			}
			printInfo("shell items:   %d\n", len(link.IDList))
			return nil
		},
	}
}

func newLNKJumpListCmd() *cobra.Command {
	var custom bool
	cmd := &cobra.Command{
		Use:   "lnk-jumplist <file>",
		Short: "Decode an AutomaticDestinations or CustomDestinations jumplist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if custom {
				b, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				links, err := lnk.ParseCustomDestinations(b)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(links)
				}
				for i, l := range links {
					printInfo("[%d] %s\n", i, l.Strings.RelativePath)
				}
				return nil
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			jl, err := lnk.ParseAutomaticDestinations(f)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(jl)
			}
			for _, e := range jl.Entries {
				printInfo("entry %d: %s (modified %s)\n", e.EntryID, e.Path, e.ModifiedTime)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&custom, "custom", false, "File is a CustomDestinations-ms jumplist")
	return cmd
}
