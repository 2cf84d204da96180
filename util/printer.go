package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"zonys/config"
	"zonys/volume"
	"zonys/zone"
)

// PrintTableOfZones writes zones to writer as an ASCII table: UUID,
// tags, volume kind, running state and snapshot count. State is
// color-coded the way app.ApplyApps marks its check/cross — green
// running, yellow stopped; the snapshot count shows a red "?" when the
// volume can't be inspected.
func PrintTableOfZones(writer io.Writer, zones ...*zone.Zone) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"UUID", "Tags", "Volume", "State", "Snapshots"})

	for _, z := range zones {
		reader := config.NewReader(z.Unit)

		var tags []string
		for tag := range reader.Tags() {
			tags = append(tags, tag)
		}

		table.Append([]string{
			z.Identity.UUID.String(),
			strings.Join(tags, ", "),
			string(reader.VolumeKind()),
			stateLabel(z),
			snapshotCount(z, reader),
		})
	}

	table.Render()
}

func stateLabel(z *zone.Zone) string {
	if z.Running() {
		return color.New(color.FgGreen).Sprint("running")
	}

	return color.New(color.FgYellow).Sprint("stopped")
}

func snapshotCount(z *zone.Zone, reader *config.Reader) string {
	v, err := volume.New(reader.VolumeKind(), z.Identity)
	if err != nil {
		return color.New(color.FgRed).Sprint("?")
	}

	snapshots, err := v.Snapshots()
	if err != nil {
		return color.New(color.FgRed).Sprint("?")
	}

	return fmt.Sprintf("%d", len(snapshots))
}
