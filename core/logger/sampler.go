package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets num out of every den debug events through. A zero ratio
// disables sampling.
type ratioSampler struct {
	ratio atomic.Uint64 // num<<32 | den
	seen  atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	num = min(num, den)
	s.ratio.Store(uint64(num)<<32 | uint64(den))
	s.seen.Store(0)
}

func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	num, den := r>>32, r&0xffffffff
	if den == 0 {
		return true
	}
	return (s.seen.Add(1)-1)%den < num
}

// parseRatioSpec accepts "n/d", a bare "d" meaning 1/d, or "off".
func parseRatioSpec(spec string) (int, int) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" || spec == "off" {
		return 0, 0
	}
	numStr, denStr, ok := strings.Cut(spec, "/")
	if !ok {
		numStr, denStr = "1", spec
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0, 0
	}
	den, err := strconv.Atoi(strings.TrimSpace(denStr))
	if err != nil || den <= 0 {
		return 0, 0
	}
	return num, den
}
