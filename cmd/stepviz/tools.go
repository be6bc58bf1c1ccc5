package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kochabx/stepviz/config"
	"github.com/kochabx/stepviz/core/hexstr"
	"github.com/kochabx/stepviz/errors"
)

func curvesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "Print the curve catalog, presets and configured curves, as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var settings config.Settings
			if _, err := opts.load(&settings); err != nil {
				return err
			}
			catalog, err := settings.Catalog()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(catalog.List())
		},
	}
}

func convertCmd() *cobra.Command {
	var length, width int
	cmd := &cobra.Command{
		Use:   "convert name=hex...",
		Short: "Convert hex strings into fixed-width big-endian buffers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make(map[string]string, len(args))
			for _, arg := range args {
				name, value, ok := strings.Cut(arg, "=")
				if !ok {
					name, value = fmt.Sprintf("arg%d", len(raw)), arg
				}
				raw[name] = value
			}
			return convert(cmd.OutOrStdout(), raw, length, width)
		},
	}
	cmd.Flags().IntVarP(&length, "length", "n", 16, "number of elements")
	cmd.Flags().IntVarP(&width, "width", "w", 8, "element width in bits: 8, 16 or 32")
	return cmd
}

// convert prints one line per field, in name order, and fails if any field did.
func convert(w io.Writer, raw map[string]string, length, width int) error {
	obj, failed := hexstr.ParseObject(raw)
	lines := make(map[string]string, len(raw))
	for name, err := range failed {
		lines[name] = "error: " + errors.FromError(err).GetMessage()
	}

	switch width {
	case 8:
		format(lines, hexstr.ConvertObject[uint8](obj, length), "%02x")
	case 16:
		format(lines, hexstr.ConvertObject[uint16](obj, length), "%04x")
	case 32:
		format(lines, hexstr.ConvertObject[uint32](obj, length), "%08x")
	default:
		return errors.BadRequest("width must be 8, 16 or 32, got %d", width)
	}

	bad := 0
	for _, name := range slices.Sorted(maps.Keys(lines)) {
		if strings.HasPrefix(lines[name], "error: ") {
			bad++
		}
		fmt.Fprintf(w, "%s: %s\n", name, lines[name])
	}
	if bad > 0 {
		return errors.BadRequest("%d of %d fields failed", bad, len(raw))
	}
	return nil
}

func format[T hexstr.Element](lines map[string]string, results map[string]errors.Result[[]T], verb string) {
	for name, r := range results {
		v, err := r.Unwrap()
		if err != nil {
			lines[name] = "error: " + errors.FromError(err).GetMessage()
			continue
		}
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = fmt.Sprintf(verb, x)
		}
		lines[name] = strings.Join(parts, " ")
	}
}
