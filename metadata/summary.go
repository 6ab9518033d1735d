package metadata

import (
	"fmt"
	"io"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/stable"
)

var summaryStyle = &stable.TableStyle{
	Name:      "plain",
	HeaderRow: stable.RowStyle{Begin: "", Sep: "  ", End: ""},
	DataRow:   stable.RowStyle{Begin: "", Sep: "  ", End: ""},
	Padding:   "",
}

var summaryColumns = []stable.Column{
	{Header: "metric"},
	{Header: "value", Align: stable.AlignRight},
}

// WriteSummary renders m as a two-column human-readable table.
func WriteSummary(m *Metadata, w io.Writer) error {
	tbl := stable.New()
	tbl.HeaderWithFormat(summaryColumns)

	rows := [][2]interface{}{
		{"vertices", humanize.Comma(int64(m.Basic.Vertices))},
		{"edges", humanize.Comma(int64(m.Basic.Edges))},
		{"unitigs", humanize.Comma(int64(m.Contigs.Count))},
		{"k-mers in unitigs", humanize.Comma(int64(m.Contigs.KmersInUnitigs))},
		{"max unitig length", m.Contigs.MaxLength},
		{"min unitig length", m.Contigs.MinLength},
		{"sum unitig length", humanize.Comma(int64(m.Contigs.SumLength))},
		{"detached chordless cycles", humanize.Comma(int64(m.DCC.Count))},
		{"k-mers in DCCs", humanize.Comma(int64(m.DCC.KmersInDCC))},
		{"k", m.Parameters.K},
		{"threads", m.Parameters.Threads},
		{"mode", m.Parameters.Mode},
	}
	for _, r := range rows {
		tbl.AddRow([]interface{}{r[0], r[1]})
	}

	_, err := w.Write(tbl.Render(summaryStyle))
	if err != nil {
		return fmt.Errorf("metadata: write summary: %w", err)
	}
	return nil
}
