package store

import (
	"fmt"
	"io"
	"sort"

	"github.com/huangsam/formpath/schema"
)

// PrintGraphStatus prints graph store status information.
func PrintGraphStatus(w io.Writer, status schema.GraphStatus) {
	_, _ = fmt.Fprintf(w, "Graph Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Vertices: %d\n", status.Vertices)
	_, _ = fmt.Fprintf(w, "Edges: %d\n", status.Edges)
	if len(status.LabelCounts) == 0 {
		return
	}
	labels := make([]string, 0, len(status.LabelCounts))
	for label := range status.LabelCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	_, _ = fmt.Fprintln(w, "Vertices by label:")
	for _, label := range labels {
		_, _ = fmt.Fprintf(w, "  %s: %d\n", label, status.LabelCounts[label])
	}
}

// PrintTrackingStatus prints tracker status information.
func PrintTrackingStatus(w io.Writer, status schema.TrackingStatus) {
	_, _ = fmt.Fprintf(w, "Tracking Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Experiments: %d\n", status.Experiments)
	_, _ = fmt.Fprintf(w, "Runs: %d\n", status.Runs)
	if status.Runs > 0 && !status.LastRunTime.IsZero() {
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
	}
}
