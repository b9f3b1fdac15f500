package sink

import "qos-probe/internal/sample"

// MultiWriter fans out each sample to multiple writers.
type MultiWriter struct {
	writers []sample.Writer
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...sample.Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// WriteSample sends a sample to all writers.
func (mw *MultiWriter) WriteSample(s sample.Sample) error {
	for _, w := range mw.writers {
		if err := w.WriteSample(s); err != nil {
			return err
		}
	}
	return nil
}
