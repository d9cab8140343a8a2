// Package trace records which scheduled actions ran, when, and whether
// they failed.
//
// A scheduler configured with a Recorder reports one Entry per executed
// action in execution order. MemoryRecorder is enough for tests;
// RedisRecorder persists the trace in a Redis list so two runs (or two
// processes) can be compared with Diff.
package trace
