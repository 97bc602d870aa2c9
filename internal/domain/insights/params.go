package insights

// Params defines the thresholds used by the insights service.
type Params struct {
	// Balance limits
	MaxConcurrentReads int
	MaxToReadBacklog   int

	// Suggestions are withheld once this many items are being read.
	SuggestionReadingCap int
	DefaultSuggestions   int

	// Number of entries in the top tags and authors lists.
	TopListSize int

	// Goals
	MinYearlyGoal    int
	OnTrackTolerance float64
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values keep the default.
type ParamsConfig struct {
	MaxConcurrentReads   int
	MaxToReadBacklog     int
	SuggestionReadingCap int
	DefaultSuggestions   int
	TopListSize          int
	MinYearlyGoal        int
	OnTrackTolerance     float64
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MaxConcurrentReads:   5,
		MaxToReadBacklog:     50,
		SuggestionReadingCap: 3,
		DefaultSuggestions:   3,
		TopListSize:          5,
		MinYearlyGoal:        12,
		OnTrackTolerance:     0.8,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MaxConcurrentReads > 0 {
		params.MaxConcurrentReads = config.MaxConcurrentReads
	}
	if config.MaxToReadBacklog > 0 {
		params.MaxToReadBacklog = config.MaxToReadBacklog
	}
	if config.SuggestionReadingCap > 0 {
		params.SuggestionReadingCap = config.SuggestionReadingCap
	}
	if config.DefaultSuggestions > 0 {
		params.DefaultSuggestions = config.DefaultSuggestions
	}
	if config.TopListSize > 0 {
		params.TopListSize = config.TopListSize
	}
	if config.MinYearlyGoal > 0 {
		params.MinYearlyGoal = config.MinYearlyGoal
	}
	if config.OnTrackTolerance > 0 && config.OnTrackTolerance <= 1 {
		params.OnTrackTolerance = config.OnTrackTolerance
	}

	return params
}
