package audio

// Conversion helpers between the pipeline's normalized float32 sample domain
// and 16-bit little-endian PCM, the interchange format used by capture
// sources and the Opus sink.

// Float32ToPCM16 converts normalized [-1, 1] samples to int16 PCM, clamping
// out-of-range values. The overlap of the two lengths is converted.
func Float32ToPCM16(dst []int16, src []float32) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		v := src[i] * 32767.0
		if v > 32767.0 {
			v = 32767.0
		} else if v < -32768.0 {
			v = -32768.0
		}
		dst[i] = int16(v)
	}
}

// PCM16ToFloat32 converts int16 PCM samples to normalized [-1, 1) float32.
func PCM16ToFloat32(dst []float32, src []int16) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i]) / 32768.0
	}
}

// PCM16BytesToFloat32 decodes little-endian int16 PCM bytes into normalized
// float32 samples. Returns the number of samples decoded. A trailing odd byte
// is ignored.
func PCM16BytesToFloat32(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := 0; i < n; i++ {
		s := int16(src[i*2]) | int16(src[i*2+1])<<8
		dst[i] = float32(s) / 32768.0
	}
	return n
}

// Float32ToPCM16Bytes encodes normalized float32 samples as little-endian
// int16 PCM bytes, clamping out-of-range values. Returns the number of bytes
// written.
func Float32ToPCM16Bytes(dst []byte, src []float32) int {
	n := min(len(dst)/2, len(src))
	for i := 0; i < n; i++ {
		v := src[i] * 32767.0
		if v > 32767.0 {
			v = 32767.0
		} else if v < -32768.0 {
			v = -32768.0
		}
		s := int16(v)
		dst[i*2] = byte(s)
		dst[i*2+1] = byte(s >> 8)
	}
	return n * 2
}
