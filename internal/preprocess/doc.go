// Package preprocess reduces a stream of free-text log lines to a small,
// ordered set of templates.
//
// Each line passes through three stages in a single pass:
//
//  1. Line Filter - drops blank lines and, unless noise is included, any line
//     containing one of the noise keywords ("INFO", "DEBUG" by default)
//  2. Normalizer - applies a fixed, ordered list of substitution rules that
//     replace timestamps, UUIDs, IPv4 addresses, hex literals and long numbers
//     with placeholder tokens; the result is the cluster key
//  3. Registry - counts lines per template and keeps the first raw line seen
//     for each one as its sample
//
// A Report ranks clusters by count (descending), breaking ties by first-seen
// order, and truncates long samples for display.
//
// Basic usage:
//
//	p := preprocess.New(
//	    preprocess.WithIncludeNoise(false),
//	    preprocess.WithWorkers(4),
//	)
//	result, err := p.ProcessFile(ctx, "/var/log/app.log")
//	if err != nil {
//	    return err
//	}
//	report := p.Report("/var/log/app.log", result)
//
// With more than one worker the input is sharded across independent
// pipelines whose registries are folded with Merge. The merged report is
// identical to the sequential one.
//
// Memory grows with the number of distinct templates. Nothing is evicted.
package preprocess
