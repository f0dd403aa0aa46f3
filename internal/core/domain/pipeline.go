package domain

import "time"

// PipelineSettings tunes query reformulation, passage scoring and answer
// consensus. Zero numeric fields are replaced by defaults in the usecases.
type PipelineSettings struct {
	StripStopWords   bool
	StripFiveW       bool
	StripPunctuation bool

	HighWeight   float64
	MediumWeight float64
	LowWeight    float64

	Boosts FieldBoosts

	MaxDocuments    int
	PassageLength   int
	PassageScoreMin float64
	MaxPassages     int
	MaxCandidates   int
	ContextDepth    int

	// MinVotes is the corroboration a winning cluster needs. Zero lets a
	// lone candidate win.
	MinVotes          int
	ExtractionWorkers int

	TurnTimeout time.Duration
}

func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		StripStopWords:    true,
		StripFiveW:        true,
		StripPunctuation:  true,
		HighWeight:        3,
		MediumWeight:      2,
		LowWeight:         1,
		Boosts:            FieldBoosts{Title: 3, OpeningText: 2, Body: 1},
		MaxDocuments:      10,
		PassageLength:     3,
		PassageScoreMin:   0.1,
		MaxPassages:       10,
		MaxCandidates:     5,
		ContextDepth:      3,
		MinVotes:          0,
		ExtractionWorkers: 3,
		TurnTimeout:       60 * time.Second,
	}
}

// WithDefaults fills unset numeric fields. Strip flags and MinVotes are
// kept as given since false and zero are meaningful.
func (s PipelineSettings) WithDefaults() PipelineSettings {
	def := DefaultPipelineSettings()
	if s.HighWeight <= 0 {
		s.HighWeight = def.HighWeight
	}
	if s.MediumWeight <= 0 {
		s.MediumWeight = def.MediumWeight
	}
	if s.LowWeight <= 0 {
		s.LowWeight = def.LowWeight
	}
	if s.Boosts.Title <= 0 {
		s.Boosts.Title = def.Boosts.Title
	}
	if s.Boosts.OpeningText <= 0 {
		s.Boosts.OpeningText = def.Boosts.OpeningText
	}
	if s.Boosts.Body <= 0 {
		s.Boosts.Body = def.Boosts.Body
	}
	if s.MaxDocuments <= 0 {
		s.MaxDocuments = def.MaxDocuments
	}
	if s.PassageLength <= 0 {
		s.PassageLength = def.PassageLength
	}
	if s.PassageScoreMin < 0 {
		s.PassageScoreMin = 0
	}
	if s.MaxPassages <= 0 {
		s.MaxPassages = def.MaxPassages
	}
	if s.MaxCandidates <= 0 {
		s.MaxCandidates = def.MaxCandidates
	}
	if s.ContextDepth <= 0 {
		s.ContextDepth = def.ContextDepth
	}
	if s.MinVotes < 0 {
		s.MinVotes = 0
	}
	if s.ExtractionWorkers <= 0 {
		s.ExtractionWorkers = def.ExtractionWorkers
	}
	if s.TurnTimeout <= 0 {
		s.TurnTimeout = def.TurnTimeout
	}
	return s
}
