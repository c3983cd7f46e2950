package main

import (
	"bytes"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to stdout or atomically replaces a file, so a
// failed render never leaves a truncated output behind.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// loadData decodes render data from a file or an inline string. Both YAML
// and JSON are accepted; with neither, the data is empty.
func loadData(inline, filePath string) (map[string]any, error) {
	var raw []byte

	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		raw = data
	case inline != "":
		raw = []byte(inline)
	default:
		return make(map[string]any), nil
	}

	var result map[string]any
	if err := yaml.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}
