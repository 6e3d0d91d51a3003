package chunk

import (
	"fmt"
	"strings"
)

// Split partitions a file's content into chunks using a sliding
// line-window of cfg.TargetLines with cfg.OverlapLines of repeated
// trailing context between consecutive chunks. The empty line after a
// final newline is dropped; a file that is empty or only whitespace
// produces zero chunks.
func Split(filePath, content string, cfg Config) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	// A trailing "" from a final newline isn't a real line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}

	target := cfg.TargetLines
	if target <= 0 {
		target = len(lines)
	}
	overlap := cfg.OverlapLines
	if overlap < 0 || overlap >= target {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(lines) {
		end := start + target
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, Chunk{
			ID:        fmt.Sprintf("%s#L%d-L%d", filePath, start+1, end),
			FilePath:  filePath,
			Text:      text,
			StartLine: start + 1,
			EndLine:   end,
		})
		if end == len(lines) {
			break
		}
		start = end - overlap
	}
	return chunks
}
