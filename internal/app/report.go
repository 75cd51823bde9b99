package app

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/vk/scenerunner/internal/engine"
	"github.com/vk/scenerunner/internal/world"
)

func printReport(outW io.Writer, run int, r *engine.Report) {
	fmt.Fprintf(outW, "Run %d finished in %s", run, r.Duration().Round(time.Millisecond))
	if r.Collided() {
		fmt.Fprintf(outW, ", collision: %v", r.Collisions)
	}
	fmt.Fprintln(outW)
	for _, res := range r.Actors {
		if res.Err != nil {
			fmt.Fprintf(outW, "  %s: %d executed, error: %v\n", res.ID, res.Executed, res.Err)
			continue
		}
		fmt.Fprintf(outW, "  %s: %d executed\n", res.ID, res.Executed)
	}
}

// printWorld writes the final state of every actor as an aligned table.
func printWorld(outW io.Writer, actors []world.Actor) {
	tw := tabwriter.NewWriter(outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tX\tY\tROT\tCOLLIDED\tHALTED\tSCRIPT")
	for _, a := range actors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%t\t%d\n",
			a.ID, a.Name, num(a.X), num(a.Y), num(a.Rotation),
			a.CollisionFlagged, a.HaltedByCollision, a.Script.Len())
	}
	_ = tw.Flush()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
