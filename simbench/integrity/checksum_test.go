package integrity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
	"github.com/ZanzyTHEbar/simprint-bench/simbench/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestChecksums(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{"FastDeterminism", testFastDeterminism},
		{"FastRenameSensitive", testFastRenameSensitive},
		{"SecureRenameInvariant", testSecureRenameInvariant},
		{"SecureContentSensitive", testSecureContentSensitive},
		{"EmptyFilePolicy", testEmptyFilePolicy},
		{"DuplicatePolicy", testDuplicatePolicy},
		{"ExpectedVerification", testExpectedVerification},
		{"Cancellation", testChecksumCancellation},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func testFastDeterminism(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"0000000/a.txt": "alpha",
		"0000000/b.txt": "bravo",
		"loose.txt":     "loose",
	})

	first, err := FastChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)
	assert.Len(t, first, 16, "Fast checksum is 8 bytes hex encoded")

	second, err := FastChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second, "Recomputing without mutation must yield identical output")
}

func testFastRenameSensitive(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "alpha",
		"m.txt": "middle",
		"z.txt": "zulu",
	})

	before, err := FastChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)

	require.NoError(t, os.Rename(filepath.Join(root, "a.txt"), filepath.Join(root, "zz.txt")))

	after, err := FastChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "Fast checksum folds paths, a rename must move it")
}

func testSecureRenameInvariant(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "alpha",
		"m.txt": "middle",
		"z.txt": "zulu",
	})

	before, err := SecureChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)
	assert.Len(t, before, 64, "Secure checksum is 32 bytes hex encoded")

	// Rename into a different sort position; content is untouched.
	require.NoError(t, os.Rename(filepath.Join(root, "a.txt"), filepath.Join(root, "zz.txt")))

	after, err := SecureChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)
	assert.Equal(t, before, after, "Secure checksum folds content only, renames must not move it")
}

func testSecureContentSensitive(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})

	before, err := SecureChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("ALPHA"), 0o644))

	after, err := SecureChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "Content changes must move the secure checksum")
}

func testEmptyFilePolicy(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"full.txt": "data", "void.txt": ""})

	_, err := FastChecksum(context.Background(), root, DefaultChecksumOptions())
	var emptyErr *common.EmptyFileError
	require.ErrorAs(t, err, &emptyErr, "Zero-byte files fail closed by default")
	assert.Contains(t, emptyErr.Path, "void.txt")

	opts := DefaultChecksumOptions()
	opts.AllowEmpty = true
	sum, err := FastChecksum(context.Background(), root, opts)
	require.NoError(t, err, "AllowEmpty downgrades the empty file to a warning")
	assert.Len(t, sum, 16)

	_, err = SecureChecksum(context.Background(), root, DefaultChecksumOptions())
	require.ErrorAs(t, err, &emptyErr, "The secure tier applies the same empty policy")

	_, err = SecureChecksum(context.Background(), root, opts)
	assert.NoError(t, err)
}

func testDuplicatePolicy(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.bin": "same bytes",
		"b.bin": "same bytes",
		"c.bin": "different",
	})

	_, err := SecureChecksum(context.Background(), root, DefaultChecksumOptions())
	var dupErr *common.DuplicateFileError
	require.ErrorAs(t, err, &dupErr, "Byte-identical files fail closed by default")
	assert.Equal(t, "b.bin", dupErr.PathA, "The later file in walk order is reported as the duplicate")
	assert.Equal(t, "a.bin", dupErr.PathB, "The earlier file is reported as the duplicated one")

	opts := DefaultChecksumOptions()
	opts.AllowDupes = true
	sum, err := SecureChecksum(context.Background(), root, opts)
	require.NoError(t, err, "AllowDupes downgrades duplicates to warnings")
	assert.Len(t, sum, 64)
}

func testExpectedVerification(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "alpha"})

	actual, err := FastChecksum(context.Background(), root, DefaultChecksumOptions())
	require.NoError(t, err)

	opts := DefaultChecksumOptions()
	opts.Expected = actual
	verified, err := FastChecksum(context.Background(), root, opts)
	require.NoError(t, err, "Matching expected checksum verifies cleanly")
	assert.Equal(t, actual, verified)

	opts.Expected = "0000000000000000"
	got, err := FastChecksum(context.Background(), root, opts)
	var intErr *common.IntegrityError
	require.ErrorAs(t, err, &intErr, "Mismatch surfaces an integrity error")
	assert.Equal(t, "0000000000000000", intErr.Expected)
	assert.Equal(t, actual, intErr.Actual)
	assert.Equal(t, actual, got, "The computed checksum is returned alongside the error")
}

func testChecksumCancellation(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FastChecksum(ctx, root, DefaultChecksumOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProgressReporting(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "alpha", "b.txt": "bravo", "c.txt": "charlie"})

	tracker := &progress.Tracker{}
	opts := DefaultChecksumOptions()
	opts.Progress = tracker

	_, err := SecureChecksum(context.Background(), root, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tracker.Total())
	assert.Equal(t, int64(3), tracker.Done(), "Every hashed file reports progress")
}

func BenchmarkFastChecksum(b *testing.B) {
	root := b.TempDir()
	for i := 0; i < 64; i++ {
		path := filepath.Join(root, "0000000", "file_"+string(rune('a'+i%26))+".txt")
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		_ = os.WriteFile(path, []byte("content"), 0o644)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FastChecksum(context.Background(), root, DefaultChecksumOptions()); err != nil {
			b.Fatal(err)
		}
	}
}
