package val

//provider feed sources

// Source ingests one upstream provider feed and emits canonical locations to
// the handler. Sources are run strictly sequentially; a source processes one
// in-flight fetch at a time.
type Source interface {
	Type() string
	Name() string
	Configure(params map[string]interface{}) error
	CheckAvailability(handler LocationHandler) (count int, err error)
}

// GetSourceConstructors returns the registry of known source types.
func GetSourceConstructors() map[string]func(name string) Source {
	return map[string]func(name string) Source{
		SourceTypeVaccineSpotter: NewSourceVaccineSpotter,
		SourceTypeWaDoh:          NewSourceWaDoh,
	}
}
