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

// Package cdbg provides the packed k-mer representation shared by every
// stage of compacted de Bruijn graph construction: parsing, canonical
// orientation, and the rolling updates the streaming components use to
// advance a k-mer one base at a time without re-parsing it.
//
// Sub-packages implement the rest of the pipeline: kmerdb (on-disk k-mer
// set access), spmc (producer/consumer streaming), mphf (minimal perfect
// hashing), statetable (packed per-vertex state), automaton and refcdbg
// (the read- and reference-driven classifiers), unitig (maximal-unitig
// and detached-cycle extraction), workerpool, sink, metadata and engine
// (orchestration), and cmd (the CLI).
package cdbg
