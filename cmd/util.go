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
	"os"

	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
)

// Options holds the global, persistent-flag-derived settings every
// subcommand reads.
type Options struct {
	NumCPUs int
	Verbose bool
}

func getOptions(cmd *cobra.Command) *Options {
	n := getFlagPositiveInt(cmd, "threads")
	return &Options{
		NumCPUs: n,
		Verbose: getFlagBool(cmd, "verbose"),
	}
}

// checkError prints err and exits non-zero if err is non-nil. Every CLI
// call site funnels its errors through this one fatal-error convention.
func checkError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "[error]", err)
		os.Exit(1)
	}
}

func getFlagString(cmd *cobra.Command, flag string) string {
	s, err := cmd.Flags().GetString(flag)
	checkError(err)
	return s
}

func getFlagStringSlice(cmd *cobra.Command, flag string) []string {
	s, err := cmd.Flags().GetStringSlice(flag)
	checkError(err)
	return s
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	b, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return b
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	n, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return n
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	n := getFlagInt(cmd, flag)
	if n <= 0 {
		checkError(fmt.Errorf("value of flag --%s should be positive", flag))
	}
	return n
}

func getFlagNonNegativeInt(cmd *cobra.Command, flag string) int {
	n := getFlagInt(cmd, flag)
	if n < 0 {
		checkError(fmt.Errorf("value of flag --%s should not be negative", flag))
	}
	return n
}

// checkFiles verifies every path in files exists (or is "-" for stdin).
func checkFiles(files ...string) {
	for _, file := range files {
		if file == "-" {
			continue
		}
		ok, err := pathutil.Exists(file)
		checkError(err)
		if !ok {
			checkError(fmt.Errorf("file does not exist: %s", file))
		}
	}
}

// requireOddK enforces I7: k must be odd so no k-mer equals its own
// reverse complement.
func requireOddK(k int) {
	if k%2 == 0 {
		checkError(fmt.Errorf("k must be odd, got %d", k))
	}
}
