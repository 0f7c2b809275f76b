package mp4tag

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// OpenMany opens every path concurrently, bounded to runtime.NumCPU()
// in-flight opens at a time, mirroring the teacher's OpenMany shape. Separate
// Contexts on separate files are independent per spec §5, so this is safe
// even though a single Context is not safe for concurrent use. On any
// failure, every Context already opened is closed and the first error is
// returned.
func OpenMany(ctx context.Context, paths ...string) ([]*Context, error) {
	results := make([]*Context, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			c, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, c := range results {
			if c != nil {
				c.Close()
			}
		}
		return nil, err
	}
	return results, nil
}

// BatchSetTagString applies SetTagString(name, value) to every path
// concurrently, bounded the same way as OpenMany. Each file is opened
// read-write, mutated, and closed independently; one file's failure does not
// block the others, but is reported once all have finished.
func BatchSetTagString(ctx context.Context, paths []string, name, value string) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, path := range paths {
		path := path
		g.Go(func() error {
			c, err := OpenRW(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			defer c.Close()
			if err := c.SetTagString(name, value); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	return g.Wait()
}
