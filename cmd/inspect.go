package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/trackgen/internal/events"
	"github.com/telhawk-systems/trackgen/internal/logging"
	"github.com/telhawk-systems/trackgen/pkg/output"
	"github.com/telhawk-systems/trackgen/pkg/payload"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect BODYFILE",
		Short: "Decode a body into flattened events",
		Long: `Decode a raw body and print one event per payload, merged with the
collection's identity fields. JSON output is one event per line.

Examples:
  trackgen inspect ./bodies/0001.pb
  trackgen inspect ./bodies/0001.pb --output table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(args[0])
		},
	}
}

func (a *app) runInspect(path string) error {
	body, err := a.readBody(path)
	if err != nil {
		return err
	}

	c, err := payload.Unmarshal(body)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := payload.VerifySession(c); err != nil {
		a.out.Warn("%s: %v", path, err)
	}

	evs := events.FromCollection(c)
	a.log.DebugContext(a.ctx, "decoded body", logging.Path(path), logging.PayloadCount(len(evs)))

	switch a.out.Format {
	case output.FormatJSON:
		lines, err := events.JSONLines(evs)
		if err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}
		_, err = a.out.Out.Write(lines)
		return err
	default:
		return a.out.Print(evs, func() *output.Table {
			table := output.NewTable("NR", "AT", "EVENT", "USER_ID", "IP", "SYSTEM")
			for _, e := range evs {
				table.AddRow(
					strconv.FormatUint(uint64(e.Nr), 10),
					e.At,
					e.Event,
					strconv.FormatUint(uint64(e.UserID), 10),
					e.IP,
					e.System,
				)
			}
			return table
		})
	}
}
