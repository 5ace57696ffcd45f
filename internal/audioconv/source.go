package audioconv

// FileSource stands in for the microphone: each Record call decodes the same
// file. MaxSeconds > 0 truncates the clip like the fixed capture window does.
type FileSource struct {
	Path       string
	MaxSeconds int
}

func (s *FileSource) Record() ([]float32, error) {
	max := 0
	if s.MaxSeconds > 0 {
		max = s.MaxSeconds * TargetRate
	}
	return DecodeFile(s.Path, max)
}
