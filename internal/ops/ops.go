// Package ops implements the call classification pipeline and the category
// reindexing protocol on top of the store and the inference guard.
package ops

// acceptThreshold is the zero-shot score a candidate label must strictly
// exceed for a call to belong to the label's category. Shared by the
// ingestion pipeline and the reindexer.
const acceptThreshold = 0.89

// Sentiment score cutoffs for the emotional tone mapping. The asymmetry
// between the positive and negative branches is intentional product behavior.
const (
	toneStrongCutoff = 0.999
	toneWeakCutoff   = 0.9
)
