package gridfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dshade/endian"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/format"
)

func TestNewFlag_Defaults(t *testing.T) {
	flag := NewFlag()

	require.True(t, flag.IsValidMagicNumber())
	require.Equal(t, uint16(MagicGridV1Opt), flag.GetMagicNumber())
	require.True(t, flag.IsLittleEndian())
	require.False(t, flag.IsBigEndian())
	require.False(t, flag.IsCategorical())
	require.False(t, flag.HasCategoryNames())
	require.Equal(t, format.TypeXOR, flag.CellEncoding())
	require.Equal(t, format.CompressionZstd, flag.PayloadCompression())
	require.Equal(t, format.CompressionNone, flag.NameCompression())
	require.NoError(t, flag.Validate())
}

func TestFlag_Endianness(t *testing.T) {
	flag := NewFlag()

	flag.WithBigEndian()
	require.True(t, flag.IsBigEndian())
	require.Equal(t, endian.GetBigEndianEngine(), flag.GetEndianEngine())
	require.True(t, flag.IsValidMagicNumber(), "endianness must not clobber the magic")

	flag.WithLittleEndian()
	require.True(t, flag.IsLittleEndian())
	require.Equal(t, endian.GetLittleEndianEngine(), flag.GetEndianEngine())
}

func TestFlag_GridKind(t *testing.T) {
	flag := NewFlag()
	require.Equal(t, format.GridScalar, flag.GridKind())

	flag.SetCategorical(true)
	flag.SetHasCategoryNames(true)
	require.Equal(t, format.GridCategorical, flag.GridKind())
	require.True(t, flag.HasCategoryNames())
	require.NoError(t, flag.Validate())

	flag.SetCategorical(false)
	flag.SetHasCategoryNames(false)
	require.Equal(t, format.GridScalar, flag.GridKind())
}

func TestFlag_CompressionNibbles(t *testing.T) {
	flag := NewFlag()

	// The two compression fields share one byte and must not clobber
	// each other.
	flag.SetPayloadCompression(format.CompressionLZ4)
	flag.SetNameCompression(format.CompressionS2)
	require.Equal(t, format.CompressionLZ4, flag.PayloadCompression())
	require.Equal(t, format.CompressionS2, flag.NameCompression())

	flag.SetPayloadCompression(format.CompressionNone)
	require.Equal(t, format.CompressionNone, flag.PayloadCompression())
	require.Equal(t, format.CompressionS2, flag.NameCompression())
}

func TestFlag_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *Flag)
		wantErr error
	}{
		{
			name:    "bad magic",
			mutate:  func(f *Flag) { f.Options = (f.Options &^ MagicNumberMask) | 0x1230 },
			wantErr: errs.ErrInvalidMagicNumber,
		},
		{
			name:    "reserved bit set",
			mutate:  func(f *Flag) { f.Options |= ReservedBitsMask },
			wantErr: errs.ErrInvalidHeaderFlags,
		},
		{
			name:    "name section on scalar grid",
			mutate:  func(f *Flag) { f.SetHasCategoryNames(true) },
			wantErr: errs.ErrInvalidHeaderFlags,
		},
		{
			name:    "unknown cell encoding",
			mutate:  func(f *Flag) { f.EncodingType = 0x0F },
			wantErr: errs.ErrInvalidHeaderFlags,
		},
		{
			name:    "encoding reserved bits",
			mutate:  func(f *Flag) { f.EncodingType |= 0x20 },
			wantErr: errs.ErrInvalidHeaderFlags,
		},
		{
			name:    "unknown payload compression",
			mutate:  func(f *Flag) { f.CompressionType = (f.CompressionType & 0xF0) | 0x0F },
			wantErr: errs.ErrInvalidHeaderFlags,
		},
		{
			name:    "unknown name compression",
			mutate:  func(f *Flag) { f.CompressionType = (f.CompressionType & 0x0F) | 0xF0 },
			wantErr: errs.ErrInvalidHeaderFlags,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := NewFlag()
			tt.mutate(&flag)
			require.ErrorIs(t, flag.Validate(), tt.wantErr)
		})
	}
}
