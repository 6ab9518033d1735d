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
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuttlefish-go/cdbg/engine"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "build the maximal-unitig compaction of a de Bruijn graph",
	Long: `build the maximal-unitig compaction of a de Bruijn graph

Runs either read-cdBG mode (a vertex database plus an edge database, both
produced by an external k-mer counter) or ref-cdBG mode (a vertex database
plus one or more reference FASTA/Q files), and writes the resulting
maximal unitigs as FASTA.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		runtime.GOMAXPROCS(opt.NumCPUs)

		k := getFlagPositiveInt(cmd, "kmer-len")
		requireOddK(k)

		vertexDB := getFlagString(cmd, "vertices")
		checkFiles(vertexDB)

		edgeDB := getFlagString(cmd, "edges")
		refs := getFlagStringSlice(cmd, "reference")
		if edgeDB == "" && len(refs) == 0 {
			checkError(fmt.Errorf("one of --edges or --reference is required"))
		}
		if edgeDB != "" && len(refs) > 0 {
			checkError(fmt.Errorf("--edges and --reference are mutually exclusive"))
		}
		if edgeDB != "" {
			checkFiles(edgeDB)
		} else {
			checkFiles(refs...)
		}

		out := getFlagString(cmd, "out-file")
		meta := getFlagString(cmd, "metadata")
		minAbundance := getFlagNonNegativeInt(cmd, "min-abundance")
		dcc := getFlagBool(cmd, "dcc")
		gzipOut := getFlagBool(cmd, "gzip") || strings.HasSuffix(out, ".gz")

		p := engine.Params{
			K:            k,
			VertexDBPath: vertexDB,
			EdgeDBPath:   edgeDB,
			ReferencePaths: refs,
			Threads:      opt.NumCPUs,
			MinAbundance: minAbundance,
			OutputPath:   out,
			GzipOutput:   gzipOut,
			MetadataPath: meta,
			DCC:          dcc,
		}

		if opt.Verbose {
			if edgeDB != "" {
				log.Infof("running read-cdBG build: k=%d, vertices=%s, edges=%s", k, vertexDB, edgeDB)
			} else {
				log.Infof("running ref-cdBG build: k=%d, vertices=%s, references=%v", k, vertexDB, refs)
			}
		}

		var err error
		if edgeDB != "" {
			err = engine.BuildReadCdBG(p)
		} else {
			err = engine.BuildRefCdBG(p)
		}
		checkError(err)

		if opt.Verbose {
			log.Info("done")
		}
	},
}

func init() {
	RootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntP("kmer-len", "k", 0, "k-mer length (odd, <= 63)")
	buildCmd.Flags().StringP("vertices", "V", "", "vertex k-mer database path")
	buildCmd.Flags().StringP("edges", "E", "", "edge (k+1)-mer database path (read-cdBG mode)")
	buildCmd.Flags().StringSliceP("reference", "R", nil, "reference FASTA/Q path(s) (ref-cdBG mode)")
	buildCmd.Flags().StringP("out-file", "o", "unitigs.fasta", "output FASTA path ('-' for stdout)")
	buildCmd.Flags().BoolP("gzip", "z", false, "gzip-compress the output FASTA")
	buildCmd.Flags().StringP("metadata", "m", "", "write a JSON metadata summary to this path")
	buildCmd.Flags().IntP("min-abundance", "a", 1, "minimum k-mer abundance cutoff (recorded for provenance only)")
	buildCmd.Flags().BoolP("dcc", "d", true, "also extract detached chordless cycles (read-cdBG mode only)")
}
