// Package engine computes volume-weighted average prices, close/VWAP crossings and the
// breakout, reversal and RSI rules built on them.
//
// Every function is a pure function of its inputs. No state is held between calls, so the same
// series always yields the same output and the functions are safe for concurrent use.
package engine
