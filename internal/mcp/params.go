package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/standardbeagle/dextract/internal/config"
)

// ScanParams are the arguments of scan_dependencies
type ScanParams struct {
	Path        string    `json:"path,omitempty"`
	Strict      bool      `json:"strict,omitempty"`
	MaxFileSize SizeParam `json:"max_file_size,omitempty"`
	Languages   []string  `json:"languages,omitempty"`
	Include     []string  `json:"include,omitempty"`
	Exclude     []string  `json:"exclude,omitempty"`
	Manifests   bool      `json:"manifests,omitempty"`
}

// UnmarshalJSON accepts a few aliases clients commonly guess
func (p *ScanParams) UnmarshalJSON(data []byte) error {
	type Alias ScanParams

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		switch key {
		case "root", "dir", "directory":
			normalized["path"] = value
		case "language", "lang":
			normalized["languages"] = asArray(value)
		case "languages", "include", "exclude":
			normalized[key] = asArray(value)
		default:
			normalized[key] = value
		}
	}

	normalizedJSON, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalizedJSON, (*Alias)(p))
}

// asArray wraps a bare string so "go" and ["go"] decode alike
func asArray(value json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.RawMessage(append(append([]byte{'['}, trimmed...), ']'))
	}
	return value
}

// ClassifyParams are the arguments of classify_file
type ClassifyParams struct {
	Path   string `json:"path"`
	Strict bool   `json:"strict,omitempty"`
}

// SizeParam is a byte count given as a number or as "5MB"
type SizeParam int64

func (s *SizeParam) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = SizeParam(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("max_file_size must be a number or a size string, got %s", string(data))
	}
	if str == "" {
		*s = 0
		return nil
	}
	size, err := config.ParseSize(str)
	if err != nil {
		return fmt.Errorf("max_file_size: %w", err)
	}
	*s = SizeParam(size)
	return nil
}

func (s SizeParam) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(s), 10)), nil
}
