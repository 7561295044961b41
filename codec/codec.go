// Package codec centralizes the JSON encoding used for partition documents.
//
// Partition files are plain UTF-8 JSON before compression, so every codec here
// must produce standard JSON. Switching codecs never changes what can be read
// back, only how fast it is produced.
package codec

// Codec encodes and decodes JSON. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns the built-in codec registered under name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
