// rex-bench is a benchmark and stress test for the rex editing core.
// It generates a large file and measures the cost of common operations.
package main

import (
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dbrodie/rex"
)

const (
	fileSize  = 256 * 1024 * 1024 // 256 MB
	chunkSize = 8 * 1024 * 1024

	readSize  = 4 * 1024
	editCount = 10000
	editSize  = 16
)

type benchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r benchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		return fmt.Sprintf("%-36s %12v  (%d ops, %.0f ops/sec) %s",
			r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec, r.Extra)
	}
	return fmt.Sprintf("%-36s %12v  %s", r.Name, r.Duration.Round(time.Millisecond), r.Extra)
}

func main() {
	fmt.Println("rex benchmark and stress test")
	fmt.Println("=============================")
	fmt.Printf("File size: %d MB\n", fileSize/(1024*1024))
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Println()

	tmpDir, err := os.MkdirTemp("", "rex-bench-*")
	if err != nil {
		fmt.Printf("failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "bench.bin")

	fmt.Println("generating test file...")
	report(generateTestFile(testFile))

	src, err := rex.OpenFile(testFile)
	if err != nil {
		fmt.Printf("open failed: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	buf := rex.NewBuffer(src)
	rng := mrand.New(mrand.NewSource(1))

	report(benchSequentialRead(buf))
	report(benchRandomRead(buf, rng))
	report(benchScatteredInserts(buf, rng))
	report(benchScatteredOverwrites(buf, rng))
	report(benchScatteredDeletes(buf, rng))
	report(benchUndoAll(buf))
	report(benchSave(buf, filepath.Join(tmpDir, "bench-out.bin")))
}

func report(r benchResult) {
	fmt.Println(r)
}

func generateTestFile(path string) benchResult {
	start := time.Now()
	f, err := os.Create(path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	chunk := make([]byte, chunkSize)
	for written := 0; written < fileSize; written += chunkSize {
		if _, err := rand.Read(chunk); err != nil {
			fatal(err)
		}
		if _, err := f.Write(chunk); err != nil {
			fatal(err)
		}
	}
	return benchResult{Name: "generate file", Duration: time.Since(start)}
}

func benchSequentialRead(buf *rex.Buffer) benchResult {
	start := time.Now()
	var total int64
	for off := int64(0); off < buf.Len(); off += chunkSize {
		n := int64(chunkSize)
		if off+n > buf.Len() {
			n = buf.Len() - off
		}
		data, err := buf.ReadRange(off, n)
		if err != nil {
			fatal(err)
		}
		total += int64(len(data))
	}
	return benchResult{
		Name:     "sequential read",
		Duration: time.Since(start),
		Extra:    fmt.Sprintf("%d MB", total/(1024*1024)),
	}
}

func benchRandomRead(buf *rex.Buffer, rng *mrand.Rand) benchResult {
	start := time.Now()
	for i := 0; i < editCount; i++ {
		off := rng.Int63n(buf.Len() - readSize)
		if _, err := buf.ReadRange(off, readSize); err != nil {
			fatal(err)
		}
	}
	return benchResult{Name: "random 4KB reads", Duration: time.Since(start), Ops: editCount}
}

func benchScatteredInserts(buf *rex.Buffer, rng *mrand.Rand) benchResult {
	data := make([]byte, editSize)
	start := time.Now()
	for i := 0; i < editCount; i++ {
		off := rng.Int63n(buf.Len() + 1)
		if err := buf.Insert(off, data); err != nil {
			fatal(err)
		}
	}
	return benchResult{Name: "scattered inserts", Duration: time.Since(start), Ops: editCount}
}

func benchScatteredOverwrites(buf *rex.Buffer, rng *mrand.Rand) benchResult {
	data := make([]byte, editSize)
	start := time.Now()
	for i := 0; i < editCount; i++ {
		off := rng.Int63n(buf.Len() - editSize)
		if err := buf.Overwrite(off, data); err != nil {
			fatal(err)
		}
	}
	return benchResult{Name: "scattered overwrites", Duration: time.Since(start), Ops: editCount}
}

func benchScatteredDeletes(buf *rex.Buffer, rng *mrand.Rand) benchResult {
	start := time.Now()
	for i := 0; i < editCount; i++ {
		off := rng.Int63n(buf.Len() - editSize)
		if err := buf.Delete(off, editSize); err != nil {
			fatal(err)
		}
	}
	return benchResult{Name: "scattered deletes", Duration: time.Since(start), Ops: editCount}
}

func benchUndoAll(buf *rex.Buffer) benchResult {
	start := time.Now()
	ops := 0
	for {
		if _, err := buf.Undo(); err != nil {
			break
		}
		ops++
	}
	return benchResult{Name: "undo everything", Duration: time.Since(start), Ops: ops}
}

func benchSave(buf *rex.Buffer, path string) benchResult {
	f, err := os.Create(path)
	if err != nil {
		fatal(err)
	}
	start := time.Now()
	n, err := buf.WriteTo(f)
	if err != nil {
		fatal(err)
	}
	if err := f.Close(); err != nil {
		fatal(err)
	}
	return benchResult{
		Name:     "save (stream out)",
		Duration: time.Since(start),
		Extra:    fmt.Sprintf("%d MB, %.0f MB/s", n/(1024*1024), float64(n)/(1024*1024)/time.Since(start).Seconds()),
	}
}

func fatal(err error) {
	fmt.Printf("fatal: %v\n", err)
	os.Exit(1)
}
