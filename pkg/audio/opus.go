package audio

import (
	"fmt"

	"layeh.com/gopus"
)

// OpusSink encodes processed mono frames into Opus packets for downstream
// transport. Each WriteFrame call must carry exactly the frame size the sink
// was created with; at 48 kHz a 480-sample frame is one 10 ms Opus frame.
//
// The sink is stateful (the encoder carries prediction state across frames)
// and must be used from a single goroutine.
type OpusSink struct {
	enc       *gopus.Encoder
	frameSize int
	pcm       []int16 // reused conversion scratch
	emit      func(packet []byte)
}

// maxOpusPacket is a generous upper bound for a single mono Opus packet.
const maxOpusPacket = 1275

// NewOpusSink creates an Opus encoder for mono audio at sampleRate Hz with
// the given per-frame sample count. emit receives each encoded packet; the
// packet buffer is owned by the callee and only valid until emit returns.
func NewOpusSink(sampleRate, frameSize int, emit func(packet []byte)) (*OpusSink, error) {
	if emit == nil {
		return nil, fmt.Errorf("audio: opus sink requires an emit callback")
	}
	enc, err := gopus.NewEncoder(sampleRate, 1, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus encoder: %w", err)
	}
	return &OpusSink{
		enc:       enc,
		frameSize: frameSize,
		pcm:       make([]int16, frameSize),
		emit:      emit,
	}, nil
}

// WriteFrame encodes one frame of normalized float32 samples and hands the
// resulting packet to the emit callback.
func (s *OpusSink) WriteFrame(frame []float32) error {
	if len(frame) != s.frameSize {
		return fmt.Errorf("audio: opus sink expects %d samples, got %d", s.frameSize, len(frame))
	}
	Float32ToPCM16(s.pcm, frame)
	packet, err := s.enc.Encode(s.pcm, s.frameSize, maxOpusPacket)
	if err != nil {
		return fmt.Errorf("audio: opus encode: %w", err)
	}
	s.emit(packet)
	return nil
}
