package algo

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"os"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/dataset"

	"lukechampine.com/blake3"
)

const (
	// simhashSampleSize caps the number of tokens folded into a simhash so
	// pathological files cannot stall the pipeline.
	simhashSampleSize = 1000

	// blake3SampleSize caps how much of a large file feeds the content
	// digest prefix.
	blake3SampleSize = 1024 * 1024
)

// SimhashText returns the built-in 64-bit token simhash for text corpora.
// Near-identical documents land within a few bits of each other, which makes
// it a useful smoke-test subject for the whole benchmark path.
func SimhashText() Algorithm {
	return Algorithm{
		Name:  "Simhash Text",
		Label: "shtx",
		Mode:  dataset.ModeText,
		Fn:    simhashFile,
	}
}

// Blake3Prefix returns the built-in exact-duplicate detector: the first 8
// bytes of a blake3 content digest. Any content change flips roughly half
// the bits, so only byte-identical files match at low thresholds.
func Blake3Prefix() Algorithm {
	return Algorithm{
		Name:  "Blake3 Prefix",
		Label: "b3pfx",
		Fn:    blake3PrefixFile,
	}
}

func simhashFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	vector := make([]int64, 64)

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanWords)

	tokensProcessed := 0
	for scanner.Scan() && tokensProcessed < simhashSampleSize {
		token := scanner.Text()

		hash := fnv.New64a()
		hash.Write([]byte(token))
		tokenHash := hash.Sum64()

		for i := 0; i < 64; i++ {
			if (tokenHash & (1 << uint(i))) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}

		tokensProcessed++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	var simhash uint64
	for i := 0; i < 64; i++ {
		if vector[i] >= 0 {
			simhash |= (1 << uint(i))
		}
	}

	code := make([]byte, 8)
	binary.BigEndian.PutUint64(code, simhash)
	return code, nil
}

func blake3PrefixFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.CopyN(hasher, file, blake3SampleSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hasher.Sum(nil)[:8], nil
}
