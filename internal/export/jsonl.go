package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports transcripts in JSONL format (one entry per line)
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, entry := range t.Entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode entry: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
