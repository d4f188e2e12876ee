package main

import (
	"os"

	"github.com/danmuck/hashdragon/internal/keyinfo"
	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/traits"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func (a *app) keyinfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keyinfo <private-key-hex>",
		Short: "Show the public keys and HASH160s for a private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := keyinfo.Derive(args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			return keyinfo.Render(cmd.OutOrStdout(), info)
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "describe <hashdragon>",
		Short: "Describe the virtues of a hashdragon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := protocol.ParseHash(args[0])
			if err != nil {
				return err
			}
			t, err := traits.Describe(h)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), t)
			}

			out := cmd.OutOrStdout()
			color := false
			if f, ok := out.(*os.File); ok && !noColor && !a.cfg.Log.NoColor {
				color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
				out = colorable.NewColorable(f)
			}
			return traits.Render(out, t, color)
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable the colour swatch")
	return cmd
}
