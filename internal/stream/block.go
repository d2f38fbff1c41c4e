// Package stream drives bit-level decoders with a cooperative, pull-based
// schedule: a Runner buffers whatever input has arrived and repeatedly hands
// the whole unconsumed window to a Block, which reports how much it used.
package stream

// Block is a streaming decoder or encoder.
//
// Work is called with the currently buffered input and room for output. It
// must not block and must not retain in or out. It returns the number of
// input items consumed (never more than len(in)) and output items produced
// (never more than len(out)). Returning 0, 0 asks the caller for more input.
// Calling Work again with a longer window after a 0, 0 return must behave as
// if the longer window had been available from the start.
//
// Forecast returns the minimum number of input items needed to produce
// nOutput items, used to size buffers. Blocks without stream output report
// the smallest window they can make progress on.
type Block interface {
	Work(in []uint8, out []uint8) (consumed, produced int)
	Forecast(nOutput int) int
}

// Observer receives per-call accounting from a Runner.
type Observer interface {
	ObserveWork(block string, consumed, produced int)
	ObserveOverflow(block string, dropped int)
}
