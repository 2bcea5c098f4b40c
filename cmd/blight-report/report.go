package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

func formatReport(results []runResult) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "seed\tframes\tgens\tplaced\tdestroyed\tpipes lost\tdepleted\tore\tpowered\tblight %\t")
	var ore, destroyed int
	var blight float64
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f\t\n",
			r.seed, r.frames, r.generations, r.placed, r.destroyed, r.prunedPipes, r.depleted, r.totalOre, r.powered, 100*r.blighted)
		ore += r.totalOre
		destroyed += r.destroyed
		blight += r.blighted
	}
	tw.Flush()
	if n := len(results); n > 0 {
		fmt.Fprintf(&b, "\nmean over %d runs: ore %.1f, destroyed %.1f, blight %.1f%%\n",
			n, float64(ore)/float64(n), float64(destroyed)/float64(n), 100*blight/float64(n))
	}
	return b.String()
}
