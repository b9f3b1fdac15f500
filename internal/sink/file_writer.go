package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"qos-probe/internal/sample"
)

// FileWriter writes samples to a JSONL file, one sample per line.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates the file, truncating any previous content.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// WriteSample logs a single sample.
func (f *FileWriter) WriteSample(s sample.Sample) error {
	return f.enc.Encode(s)
}

// WriteAll logs the full sequence in order.
func (f *FileWriter) WriteAll(samples []sample.Sample) error {
	for _, s := range samples {
		if err := f.WriteSample(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.file.Close()
}

// ReadFile loads a previously written sample file.
func ReadFile(path string) ([]sample.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []sample.Sample
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		s, err := sample.Decode(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
