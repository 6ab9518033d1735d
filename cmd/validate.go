// Copyright © 2018 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/stable"
	"github.com/spf13/cobra"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/kmerdb"
)

// validator re-derives the k-mer set of an emitted unitig FASTA and
// checks it against the input vertex database: full coverage, no
// spurious k-mers, and each k-mer appearing exactly once.
type validator struct {
	k         int
	expected  map[string]bool
	seenCount map[string]int
	spurious  []string
}

func newValidator(k int) *validator {
	return &validator{
		k:         k,
		expected:  make(map[string]bool),
		seenCount: make(map[string]int),
	}
}

func (v *validator) loadVertexDB(path string) error {
	reader, err := kmerdb.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()
	for {
		km, err := reader.ReadKmer()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		v.expected[km.Canonical().String()] = true
	}
}

func (v *validator) checkRecord(record []byte) {
	k := v.k
	for i := 0; i+k <= len(record); i++ {
		km, err := cdbg.ParseKmer(record, i, k)
		if err != nil {
			continue // ambiguous base window; not a countable k-mer
		}
		label := km.Canonical().String()
		if !v.expected[label] {
			v.spurious = append(v.spurious, label)
			continue
		}
		v.seenCount[label]++
	}
}

// report returns (coverageOK, noSpuriousOK, exactlyOnceOK, missing, spuriousCount, multiCount).
func (v *validator) report() (coverageOK, noSpuriousOK, exactlyOnceOK bool, missing, spuriousCount, multiCount int) {
	spuriousCount = len(v.spurious)
	for label := range v.expected {
		switch v.seenCount[label] {
		case 0:
			missing++
		case 1:
			// covered exactly once, as required
		default:
			multiCount++
		}
	}
	coverageOK = missing == 0
	noSpuriousOK = spuriousCount == 0
	exactlyOnceOK = multiCount == 0
	return
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "check an emitted unitig FASTA against its input vertex database",
	Long: `validate checks k-mer coverage, absence of spurious k-mers, and
exactly-once coverage against an already-built unitig FASTA.
`,
	Run: func(cmd *cobra.Command, args []string) {
		k := getFlagPositiveInt(cmd, "kmer-len")
		vertexDB := getFlagString(cmd, "vertices")
		unitigsPath := getFlagString(cmd, "unitigs")
		checkFiles(vertexDB, unitigsPath)

		v := newValidator(k)
		checkError(v.loadVertexDB(vertexDB))

		seq.ValidateSeq = false
		reader, err := fastx.NewDefaultReader(unitigsPath)
		checkError(err)
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			checkError(err)
			v.checkRecord(record.Seq.Seq)
		}

		coverageOK, noSpuriousOK, exactlyOnceOK, missing, spurious, multi := v.report()

		style := &stable.TableStyle{
			Name:      "plain",
			HeaderRow: stable.RowStyle{Begin: "", Sep: "  ", End: ""},
			DataRow:   stable.RowStyle{Begin: "", Sep: "  ", End: ""},
			Padding:   "",
		}
		columns := []stable.Column{
			{Header: "property"},
			{Header: "result"},
			{Header: "detail", Align: stable.AlignRight},
		}
		tbl := stable.New()
		tbl.HeaderWithFormat(columns)
		tbl.AddRow([]interface{}{"k-mer coverage", passFail(coverageOK), fmt.Sprintf("%d missing", missing)})
		tbl.AddRow([]interface{}{"no spurious k-mers", passFail(noSpuriousOK), fmt.Sprintf("%d spurious", spurious)})
		tbl.AddRow([]interface{}{"exactly-once coverage", passFail(exactlyOnceOK), fmt.Sprintf("%d duplicated", multi)})
		os.Stdout.Write(tbl.Render(style))

		if !(coverageOK && noSpuriousOK && exactlyOnceOK) {
			os.Exit(1)
		}
	},
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func init() {
	RootCmd.AddCommand(validateCmd)

	validateCmd.Flags().IntP("kmer-len", "k", 0, "k-mer length, must match the value used to build the vertex database")
	validateCmd.Flags().StringP("vertices", "V", "", "vertex k-mer database path")
	validateCmd.Flags().StringP("unitigs", "u", "", "unitig FASTA path to validate")
}
