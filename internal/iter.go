// Package internal holds helpers shared between the ria packages.
package internal

import (
	"iter"
)

// IterSeq2Concat chains key/value sequences, in order.
// Duplicate keys are yielded as many times as they appear; consumers that
// build a map from the result see the last one win.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}
