// Writer implementation printing samples to STDOUT
package sink

import (
	"encoding/json"
	"fmt"

	"qos-probe/internal/sample"
)

// StdoutWriter prints each sample as a JSON line.
type StdoutWriter struct{}

// WriteSample outputs a single sample.
func (w *StdoutWriter) WriteSample(s sample.Sample) error {
	data, _ := json.Marshal(s)
	fmt.Println(string(data))
	return nil
}
