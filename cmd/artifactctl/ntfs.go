package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/forensic-go/windecode/pkg/codec"
	"github.com/forensic-go/windecode/pkg/ntfs"
	"github.com/forensic-go/windecode/pkg/record"
	"github.com/forensic-go/windecode/pkg/sector"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newNTFSInfoCmd(), newNTFSCatCmd(), newNTFSStatCmd())
}

// openNTFS maps the volume image and bootstraps the reader. The volume's
// $UpCase table is loaded best-effort; without it, name matching falls
// back to ASCII case folding.
func openNTFS(path string) (*ntfs.Reader, func() error, error) {
	// The volume image is opened via a memory map: traversal jumps all
	// over the file resolving path components and run lists, so mapping
	// avoids a read syscall per small access.
	src, closeFn, err := sector.OpenMapped(path, sector.DefaultSize)
	if err != nil {
		return nil, nil, fmt.Errorf("opening volume: %w", err)
	}
	r, err := ntfs.Open(src, src.Size())
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("opening volume: %w", err)
	}
	if ref, err := r.ReadPath(`$UpCase`); err == nil {
		if rs, err := r.Stream(ref, ""); err == nil {
			if b, err := io.ReadAll(rs); err == nil {
				r.SetUpCase(ntfs.ParseUpCaseTable(b))
			}
		}
	}
	return r, closeFn, nil
}

func newNTFSInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ntfs-info <volume>",
		Short: "Print NTFS boot sector geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			buf := make([]byte, 512)
			if _, err := io.ReadFull(f, buf); err != nil {
				return fmt.Errorf("reading boot sector: %w", err)
			}
			bs, err := ntfs.ParseBootSector(buf)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(bs)
			}
			printInfo("bytes per sector:    %d\n", bs.BytesPerSector)
			printInfo("sectors per cluster: %d\n", bs.SectorsPerCluster)
			printInfo("cluster size:        %d\n", bs.ClusterSize())
			printInfo("file record size:    %d\n", bs.FileRecordSize())
			printInfo("$MFT cluster:        %d\n", bs.MFTCluster)
			printInfo("$MFT mirror cluster: %d\n", bs.MFTMirrCluster)
			printInfo("$MFT offset:         %d\n", bs.MFTOffset())
			printInfo("volume serial:       %#016x\n", bs.VolumeSerial)
			return nil
		},
	}
}

func newNTFSCatCmd() *cobra.Command {
	var stream string
	cmd := &cobra.Command{
		Use:   "ntfs-cat <volume> <path>",
		Short: "Write the contents of an NTFS file to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openNTFS(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			ref, err := r.ReadPath(args[1])
			if err != nil {
				return fmt.Errorf("resolving %s: %w", args[1], err)
			}
			printVerbose("resolved %s to MFT record %d (seq %d)\n", args[1], ref.RecordNumber, ref.Sequence)

			var rs io.ReadSeeker
			if stream == "" {
				rs, err = r.StreamData(ref)
			} else {
				rs, err = r.Stream(ref, stream)
			}
			if errors.Is(err, codec.ErrUnsupportedVariant) {
				// rs already holds the raw compressed bytes; only the
				// warning is new.
				warnUnsupported(args[1], "WOF LZX-32K compression", err)
				err = nil
			}
			if err != nil {
				return fmt.Errorf("opening stream: %w", err)
			}
			_, err = io.Copy(os.Stdout, rs)
			return err
		},
	}
	cmd.Flags().StringVar(&stream, "stream", "", "Alternate data stream name")
	return cmd
}

func newNTFSStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ntfs-stat <volume> <path>",
		Short: "Print a file's timestamps, reparse tag, and alternate streams",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openNTFS(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			ref, err := r.ReadPath(args[1])
			if err != nil {
				return fmt.Errorf("resolving %s: %w", args[1], err)
			}
			std, fn, err := r.FileTimes(ref)
			if err != nil {
				return err
			}
			tag, err := r.ReparseTag(ref)
			if err != nil {
				return err
			}
			streams, err := r.AlternateStreams(ref)
			if err != nil {
				return err
			}

			iso := func(t ntfs.Times) map[string]string {
				return map[string]string{
					"created":     record.FiletimeToISO8601(t.Created),
					"modified":    record.FiletimeToISO8601(t.Modified),
					"mft_changed": record.FiletimeToISO8601(t.MFTChanged),
					"accessed":    record.FiletimeToISO8601(t.Accessed),
				}
			}
			if jsonOut {
				return printJSON(map[string]interface{}{
					"standard_info_times": iso(std),
					"file_name_times":     iso(fn),
					"reparse_tag":         tag,
					"alternate_streams":   streams,
				})
			}
			printInfo("record:    %d (seq %d)\n", ref.RecordNumber, ref.Sequence)
			printInfo("created:   %s\n", record.FiletimeToISO8601(std.Created))
			printInfo("modified:  %s\n", record.FiletimeToISO8601(std.Modified))
			printInfo("accessed:  %s\n", record.FiletimeToISO8601(std.Accessed))
			printInfo("reparse:   %s\n", tag)
			for _, s := range streams {
				printInfo("stream:    %s (%d bytes)\n", s.Name, s.Size)
			}
			return nil
		},
	}
}
