package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderlink/program"
	"github.com/gogpu/shaderlink/rtconst"
	"github.com/gogpu/shaderlink/spirv"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <program.json>",
		Short: "Print the tables of a linked program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFile(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			data, err := program.Decode(f, rtconst.NewRegistry())
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			writeProgram(cmd.OutOrStdout(), data)
			return nil
		},
	}
}

func writeProgram(out io.Writer, d *program.Data) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, bold("Stages"))
	for _, s := range d.StageList() {
		sd := d.Stages[s]
		fmt.Fprintf(w, "  %s\t%d bytes\t%d spec constants\n", s, len(sd.Bytecode), len(sd.SpecConstants))
		if info, err := spirv.Parse(sd.Bytecode); err == nil {
			caps := make([]string, len(info.Capabilities))
			for i, c := range info.Capabilities {
				caps[i] = c.String()
			}
			fmt.Fprintf(w, "    SPIR-V %s\t%s\n", info.Version, strings.Join(caps, " "))
		}
		for _, sc := range sd.SpecConstants {
			fmt.Fprintf(w, "    %d\t%s\t%s\n", sc.Index, sc.Name, sc.Constant.Kind())
		}
	}

	fmt.Fprintln(w, bold("Descriptor sets"))
	for _, ds := range d.DescriptorSets {
		fmt.Fprintf(w, "  %d\t%s\n", ds.Index, ds.Name)
	}

	fmt.Fprintln(w, bold("Push constants"))
	for _, pc := range d.PushConstants {
		fmt.Fprintf(w, "  #%d\t%s\t[%d, %d)\t%s\n", pc.UserID, pc.Name, pc.Offset, pc.End(), pc.Stages)
	}
	for _, s := range d.StageList() {
		if r, ok := d.StageRanges[s]; ok {
			fmt.Fprintf(w, "  %s\t[%d, %d)\n", s, r.Offset, r.Offset+r.Size)
		}
	}
	w.Flush()
}
