package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/mapblock"
)

// newValidateCmd creates the validate command. It parses a map block
// parameter file the way the host parses a fenced block, and reports the
// resolved configuration or the first validation failure.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a map block parameter file",
		Long:  `Validate parses a TOML map block body ("-" for stdin) and prints the resolved configuration, or explains why it is invalid.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func runValidate(path string) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	p, err := mapblock.Parse(string(data))
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}

	printSuccess("Valid %s map block", p.Mode)
	if p.ID != "" {
		printKeyValue("id", p.ID)
	}
	if p.Mode == mapblock.ModeImage {
		printKeyValue("image", p.Image)
	} else if p.Lat != nil && p.Long != nil {
		printKeyValue("center", fmt.Sprintf("%.4f, %.4f", *p.Lat, *p.Long))
	}
	if p.TileServer != "" {
		printKeyValue("tile server", p.TileServer)
	}
	if len(p.Markers) > 0 {
		printKeyValue("markers", fmt.Sprintf("%d", len(p.Markers)))
	}
	if len(p.MarkerTags) > 0 {
		printKeyValue("marker tags", fmt.Sprintf("%v", p.MarkerTags))
	}
	for key := range p.Extra {
		printDetail("ignoring unknown key %q", key)
	}
	return nil
}
