package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/forensic-go/windecode/pkg/ost"
	"github.com/forensic-go/windecode/pkg/sector"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newOSTInfoCmd(), newOSTFolderCmd(), newOSTMessageCmd())
}

// openOST maps the store read-only and walks both B-trees; like the ESE
// walk, node and block lookups jump around the file in no particular order.
func openOST(path string) (*ost.Reader, func() error, error) {
	src, closeFn, err := sector.OpenMapped(path, sector.DefaultSize)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	hb, err := src.ReadRange(0, 0x230)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	h, err := ost.ParseHeader(hb)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	r, err := ost.Open(src.ReadRange, h)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return r, closeFn, nil
}

func parseNodeID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad node id %q: %w", s, err)
	}
	return uint32(v), nil
}

func newOSTInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ost-info <file>",
		Short: "Print an OST/PST file's header and B-tree roots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			b, err := io.ReadAll(io.LimitReader(f, 0x230))
			if err != nil {
				return err
			}
			h, err := ost.ParseHeader(b)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(h)
			}

			kind := "PST"
			if h.Type == ost.FileTypeOST {
				kind = "OST"
			}
			printInfo("type:       %s\n", kind)
			printInfo("page size:  %d\n", h.PageSize)
			printInfo("NBT root:   %#x\n", h.NBTRoot)
			printInfo("BBT root:   %#x\n", h.BBTRoot)
			return nil
		},
	}
}

func newOSTFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ost-folder <file> <node-id>",
		Short: "Reconstruct a folder: its metadata, sub-folders, and message ids",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nid, err := parseNodeID(args[1])
			if err != nil {
				return err
			}
			r, closeFn, err := openOST(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			f, err := r.Folder(nid)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(f)
			}
			printInfo("name:          %s\n", f.Name)
			printInfo("content count: %d\n", f.ContentCount)
			printInfo("unread count:  %d\n", f.UnreadCount)
			if f.IsSearchFolder {
				printInfo("search folder: true\n")
			}
			for _, child := range f.ChildFolderIDs {
				printInfo("subfolder:     %#x\n", child)
			}
			for _, msg := range f.MessageIDs {
				printVerbose("message:       %#x\n", msg)
			}
			return nil
		},
	}
}

func newOSTMessageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ost-message <file> <node-id>",
		Short: "Reconstruct a message: subject, sender, recipients, attachments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nid, err := parseNodeID(args[1])
			if err != nil {
				return err
			}
			r, closeFn, err := openOST(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			m, err := r.Message(nid)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(m)
			}
			printInfo("subject:   %s\n", m.Subject)
			printInfo("from:      %s\n", m.SenderName)
			printInfo("delivered: %s\n", m.Delivered)
			for _, rcpt := range m.Recipients {
				printInfo("recipient: %s <%s>\n", rcpt.Name, rcpt.SMTP)
			}
			for _, att := range m.Attachments {
				printInfo("attachment: %s (%s, %d bytes)\n", att.Name, att.MimeTag, att.Size)
			}
			return nil
		},
	}
}
