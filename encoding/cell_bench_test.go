package encoding

import (
	"math"
	"testing"

	"github.com/arloliu/dshade/endian"
)

func benchPlane(cells int, kind string) []float64 {
	plane := make([]float64, cells)
	switch kind {
	case "sparse":
		for i := 0; i < cells; i += 53 {
			plane[i] = float64(i%9 + 1)
		}
	case "smooth":
		for i := range plane {
			plane[i] = math.Sqrt(float64(i))
		}
	case "noisy":
		for i := range plane {
			plane[i] = math.Sin(float64(i)*12.9898) * 43758.5453
		}
	}

	return plane
}

func BenchmarkCellRawEncoder_WriteSlice(b *testing.B) {
	engine := endian.GetLittleEndianEngine()
	plane := benchPlane(600*400, "sparse")

	b.SetBytes(int64(len(plane) * 8))
	b.ResetTimer()

	for b.Loop() {
		encoder := NewCellRawEncoder(engine)
		encoder.WriteSlice(plane)
		encoder.Finish()
	}
}

func BenchmarkCellXOREncoder_WriteSlice(b *testing.B) {
	for _, kind := range []string{"sparse", "smooth", "noisy"} {
		plane := benchPlane(600*400, kind)

		b.Run(kind, func(b *testing.B) {
			b.SetBytes(int64(len(plane) * 8))
			b.ResetTimer()

			for b.Loop() {
				encoder := NewCellXOREncoder()
				encoder.WriteSlice(plane)
				encoder.Finish()
			}
		})
	}
}

func BenchmarkCellRawDecoder_All(b *testing.B) {
	engine := endian.GetLittleEndianEngine()
	plane := benchPlane(600*400, "sparse")

	encoder := NewCellRawEncoder(engine)
	defer encoder.Finish()
	encoder.WriteSlice(plane)
	data := append([]byte(nil), encoder.Bytes()...)

	b.Run("safe", func(b *testing.B) {
		decoder := NewCellRawDecoder(engine)
		b.SetBytes(int64(len(data)))
		b.ResetTimer()

		for b.Loop() {
			var sum float64
			for v := range decoder.All(data, len(plane)) {
				sum += v
			}
			_ = sum
		}
	})

	b.Run("unsafe", func(b *testing.B) {
		decoder := NewCellRawUnsafeDecoder(engine)
		b.SetBytes(int64(len(data)))
		b.ResetTimer()

		for b.Loop() {
			var sum float64
			for v := range decoder.All(data, len(plane)) {
				sum += v
			}
			_ = sum
		}
	})
}

func BenchmarkCellXORDecoder_All(b *testing.B) {
	for _, kind := range []string{"sparse", "smooth"} {
		plane := benchPlane(600*400, kind)

		encoder := NewCellXOREncoder()
		encoder.WriteSlice(plane)
		data := append([]byte(nil), encoder.Bytes()...)
		encoder.Finish()

		b.Run(kind, func(b *testing.B) {
			decoder := NewCellXORDecoder()
			b.SetBytes(int64(len(plane) * 8))
			b.ResetTimer()

			for b.Loop() {
				var sum float64
				for v := range decoder.All(data, len(plane)) {
					sum += v
				}
				_ = sum
			}
		})
	}
}
