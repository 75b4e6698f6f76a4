package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/astei/spongeschem"
	"github.com/astei/spongeschem/compression"
	"github.com/astei/spongeschem/schematic"
)

const defaultMaxSize = compression.DefaultMaxSize

type loadedFile struct {
	index     int
	Path      string
	Scheme    compression.Scheme
	Schematic *schematic.Schematic
	Err       error
}

// loadFiles decodes every path concurrently. Results keep the order of paths;
// a file that fails carries its error instead of a schematic.
func loadFiles(paths []string, opts ...spongeschem.Option) []loadedFile {
	var wg sync.WaitGroup
	wg.Add(len(paths))
	resultChan := make(chan loadedFile, len(paths))
	for i, path := range paths {
		go func(index int, path string, res chan<- loadedFile, wg *sync.WaitGroup) {
			defer wg.Done()
			res <- loadFile(index, path, opts)
		}(i, path, resultChan, &wg)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadedFile, len(paths))
	for r := range resultChan {
		results[r.index] = r
	}
	return results
}

func loadFile(index int, path string, opts []spongeschem.Option) loadedFile {
	result := loadedFile{index: index, Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Scheme = compression.Detect(data)
	result.Schematic, result.Err = spongeschem.Decode(data, opts...)
	if result.Err != nil {
		result.Err = fmt.Errorf("could not decode %s: %w", path, result.Err)
	}
	return result
}
