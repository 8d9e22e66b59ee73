// Package format defines the wire-level enums shared by the gridfile codec
// and the compress package.
package format

import "fmt"

type (
	EncodingType    uint8
	CompressionType uint8
	GridKind        uint8
)

const (
	TypeRaw EncodingType = 0x1 // TypeRaw stores cells as fixed-width float64 bits.
	TypeXOR EncodingType = 0x2 // TypeXOR stores each cell as a uvarint of its XOR with the previous cell.

	CompressionNone CompressionType = 0x1 // CompressionNone applies no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd applies Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 applies S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 applies LZ4 block compression.

	GridScalar      GridKind = 0x1 // GridScalar is a width×height grid of one value per cell.
	GridCategorical GridKind = 0x2 // GridCategorical is a width×height×categories grid.
)

func (e EncodingType) String() string {
	switch e {
	case TypeRaw:
		return "Raw"
	case TypeXOR:
		return "XOR"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (k GridKind) String() string {
	switch k {
	case GridScalar:
		return "Scalar"
	case GridCategorical:
		return "Categorical"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a config-file name ("none", "zstd", "s2", "lz4")
// to its CompressionType. Matching is case-sensitive and lowercase, the way
// the server config file spells them.
func ParseCompression(name string) (CompressionType, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}
