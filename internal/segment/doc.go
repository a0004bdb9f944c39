// Package segment splits decoded recordings into utterance candidates at
// silences.
//
// EnergySplitter thresholds centered short-time energy against the loudest
// frame of the recording. Parameters are fixed per run; there is no adaptive
// noise floor and no merging of nearby intervals.
package segment
