package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/banshee-data/scantrack/internal/tracking"
	"github.com/banshee-data/scantrack/internal/units"
)

// writeReport prints the live tracks and the session totals.
func writeReport(w io.Writer, tracks []*tracking.Track, stats tracking.Stats, speedUnit string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tSTATE\tHITS\tMISSES\tX\tY\tZ\tSPEED (%s)\tFIRST\tLAST\n", speedUnit)
	for _, t := range tracks {
		pos := t.Filter.Position()
		vel := t.Filter.Velocity()
		speed := units.ConvertSpeed(units.Speed(vel[0], vel[1], vel[2]), speedUnit)
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.3f\t%.3f\n",
			t.ID, t.State, t.HitCount, t.MissCount, pos[0], pos[1], pos[2], speed, t.FirstTime, t.LastTime)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nbatches=%d detections=%d created=%d terminated=%d firm=%d dropped=%d singular=%d\n",
		stats.Batches, stats.Detections, stats.TracksCreated, stats.TracksTerminated,
		stats.TracksFirm, stats.Dropped, stats.SingularUpdates)
}
